// Package observability provides structured logging and Prometheus metrics
// for the orchestrator and its binaries.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ParseLevel maps a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger builds a logger writing JSON lines to w, or human-readable
// console output when pretty is set. A nil w means os.Stderr, which keeps
// stdout free for MCP stdio servers.
func NewLogger(level string, pretty bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewQueryID returns a fresh id used to correlate the log lines of one query.
func NewQueryID() string {
	return uuid.New().String()
}

// WithQueryID returns a child logger carrying the query_id field. An empty id
// is replaced by a fresh one.
func WithQueryID(l zerolog.Logger, id string) zerolog.Logger {
	if id == "" {
		id = NewQueryID()
	}
	return l.With().Str("query_id", id).Logger()
}
