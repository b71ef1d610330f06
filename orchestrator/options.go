package orchestrator

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/catalog"
	"github.com/jonwraymond/toolquery/history"
	"github.com/jonwraymond/toolquery/llm"
	"github.com/jonwraymond/toolquery/observability"
)

// Default configuration values.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultHistoryLimit = 20
)

// Errors returned by Options validation.
var (
	ErrRegistryRequired = errors.New("orchestrator: Registry is required")
	ErrModelRequired    = errors.New("orchestrator: Model is required")
)

// Options configures an Orchestrator.
type Options struct {
	// Registry lists the backends to connect and how to connect them.
	// Required.
	Registry *backend.Registry

	// Model selects tools and synthesizes answers.
	// Required.
	Model llm.Client

	// Table describes the tools advertised to the model.
	// Default: catalog.DefaultTable()
	Table catalog.Table

	// Prompts overrides the model instructions.
	// Default: DefaultPrompts()
	Prompts Prompts

	// Timeout bounds each model call, and each backend connect whose
	// descriptor sets no timeout.
	// Default: 30s
	Timeout time.Duration

	// ParallelConnect connects backends concurrently.
	// Default: false (sequential, deterministic log order)
	ParallelConnect bool

	// History stores conversations for ProcessSessionQuery.
	// Default: a new in-memory store
	History *history.Store

	// HistoryLimit is the number of past messages sent with a session query.
	// Default: 20
	HistoryLimit int

	// Logger receives structured logs.
	// Default: zerolog.Nop()
	Logger *zerolog.Logger

	// Metrics records query, tool and model metrics.
	// Optional; nil disables metrics.
	Metrics *observability.Metrics
}

// validate checks that required fields are set.
func (o *Options) validate() error {
	if o.Registry == nil {
		return ErrRegistryRequired
	}
	if o.Model == nil {
		return ErrModelRequired
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (o *Options) applyDefaults() {
	if o.Table == nil {
		o.Table = catalog.DefaultTable()
	}
	o.Prompts = o.Prompts.withDefaults()
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.History == nil {
		o.History = history.New()
	}
	if o.HistoryLimit == 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}
