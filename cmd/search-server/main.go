// Command search-server is an MCP tool server exposing web_search over
// stdio, backed by the Google Custom Search API.
//
// It reads GOOGLE_API_KEY and GOOGLE_SEARCH_ENGINE_ID from the environment
// or a .env file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonwraymond/toolquery/config"
	"github.com/jonwraymond/toolquery/observability"
	"github.com/jonwraymond/toolquery/server"
	"github.com/jonwraymond/toolquery/server/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := observability.NewLogger("info", false, os.Stderr).With().Str("server", search.Name).Logger()

	cfg, err := config.LoadSearchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	log = log.Level(observability.ParseLevel(cfg.LogLevel))

	searcher, err := search.NewGoogle(ctx, cfg.GoogleAPIKey, cfg.SearchEngineID, cfg.Results)
	if err != nil {
		log.Fatal().Err(err).Msg("create searcher")
	}

	if err := server.Run(ctx, search.NewServer(searcher, log), nil, log); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}
