// Command docs-server is an MCP tool server exposing list_documents and
// read_pdf_from_drive over stdio, backed by Google Drive.
//
// Credentials come from GOOGLE_CREDENTIALS_FILE, GOOGLE_API_KEY (public
// files only) or Application Default Credentials, in that order.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/api/option"

	"github.com/jonwraymond/toolquery/config"
	"github.com/jonwraymond/toolquery/observability"
	"github.com/jonwraymond/toolquery/server"
	"github.com/jonwraymond/toolquery/server/docs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := observability.NewLogger("info", false, os.Stderr).With().Str("server", docs.Name).Logger()

	cfg, err := config.LoadDocsServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	log = log.Level(observability.ParseLevel(cfg.LogLevel))

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.GoogleAPIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.GoogleAPIKey))
	}
	drive, err := docs.NewGoogleDrive(ctx, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("create drive client")
	}

	srv, err := docs.NewServer(docs.Options{Drive: drive, MaxPDFBytes: cfg.MaxPDFBytes, Logger: &log})
	if err != nil {
		log.Fatal().Err(err).Msg("create server")
	}
	if err := server.Run(ctx, srv, nil, log); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}
