package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/backend/stdio"
	"github.com/jonwraymond/toolquery/config"
	"github.com/jonwraymond/toolquery/llm/provider"
	"github.com/jonwraymond/toolquery/observability"
	"github.com/jonwraymond/toolquery/orchestrator"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Backends string `short:"b" long:"backends" description:"backend YAML file (overrides BACKENDS_FILE)"`
	Verbose  bool   `short:"v" long:"verbose" description:"debug logging (overrides LOG_LEVEL)"`

	Query    QueryCmd    `command:"query" description:"Answer one query and exit"`
	Chat     ChatCmd     `command:"chat" description:"Answer queries interactively, keeping conversation history"`
	Tools    ToolsCmd    `command:"tools" description:"List or search the tools of the connected backends"`
	Sessions SessionsCmd `command:"backends" description:"Show the connection state of every backend"`

	in  io.Reader
	out io.Writer
}

func newOptions(in io.Reader, out io.Writer) *Options {
	o := &Options{in: in, out: out}
	o.Query.root = o
	o.Chat.root = o
	o.Tools.root = o
	o.Sessions.root = o
	return o
}

// app is a connected orchestrator and what it needs to shut down.
type app struct {
	orch    *orchestrator.Orchestrator
	log     zerolog.Logger
	cfg     *config.Config
	metrics *http.Server
}

// start loads the configuration, connects every backend and returns a
// context canceled on SIGINT or SIGTERM.
func (o *Options) start() (context.Context, *app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	level := cfg.LogLevel
	if o.Verbose {
		level = "debug"
	}
	log := observability.NewLogger(level, cfg.LogPretty, os.Stderr)

	model, err := provider.New(provider.FromConfig(cfg))
	if err != nil {
		return nil, nil, nil, err
	}

	reg, err := o.registry(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	a := &app{log: log, cfg: cfg}
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		promReg := prometheus.NewRegistry()
		metrics = observability.NewMetrics(promReg)
		a.metrics = serveMetrics(cfg.MetricsAddr, promReg, log)
	}

	a.orch, err = orchestrator.New(orchestrator.Options{
		Registry:        reg,
		Model:           model,
		Timeout:         cfg.RequestTimeout,
		ParallelConnect: cfg.ParallelConnect,
		HistoryLimit:    cfg.HistoryLimit,
		Logger:          &log,
		Metrics:         metrics,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if err := a.orch.ConnectAll(ctx); err != nil {
		stop()
		return nil, nil, nil, err
	}

	shutdown := func() {
		stop()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.orch.DisconnectAll(sctx); err != nil {
			log.Warn().Err(err).Msg("disconnect")
		}
		if a.metrics != nil {
			_ = a.metrics.Shutdown(sctx)
		}
	}
	return ctx, a, shutdown, nil
}

func (o *Options) registry(cfg *config.Config, log zerolog.Logger) (*backend.Registry, error) {
	path := o.Backends
	if path == "" {
		path = cfg.BackendsFile
	}

	var reg *backend.Registry
	if path != "" {
		var err error
		if reg, err = backend.LoadFile(path); err != nil {
			return nil, err
		}
	} else {
		reg = backend.NewRegistry()
		for _, d := range backend.DefaultDescriptors() {
			if err := reg.Register(d); err != nil {
				return nil, err
			}
		}
	}
	reg.RegisterConnector(backend.KindStdio, stdio.Connector(stdio.Options{Logger: log}))
	return reg, nil
}

func serveMetrics(addr string, g prometheus.Gatherer, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}
