package orchestrator

import (
	"errors"
	"time"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/dispatch"
)

// Errors reported by queries and lifecycle methods.
var (
	ErrNoToolsAvailable = errors.New("no tools available on the connected backends")
	ErrInvalidState     = errors.New("invalid orchestrator state")
)

// QueryResult is the outcome of one query. A failed query never leaves the
// orchestrator unusable.
type QueryResult struct {
	Success bool   `json:"success"`
	Query   string `json:"query"`

	// ToolsUsed lists the qualified names of every attempted tool call, in
	// request order, including failed ones.
	ToolsUsed []string `json:"tools_used"`

	FinalAnswer string `json:"final_answer,omitempty"`
	Error       string `json:"error,omitempty"`

	// RawResults are the ordered dispatch outcomes fed to synthesis.
	RawResults []dispatch.Outcome `json:"raw_results"`

	// SessionID is set for queries made within a conversation.
	SessionID string `json:"session_id,omitempty"`

	// QueryID correlates the query's log lines.
	QueryID string `json:"query_id"`

	Duration time.Duration `json:"-"`

	// Err is the error behind a failed query; match it with errors.Is.
	Err error `json:"-"`
}

func failure(r QueryResult, err error) QueryResult {
	r.Success = false
	r.Err = err
	r.Error = err.Error()
	r.FinalAnswer = ""
	return r
}

// SessionInfo describes one backend session.
type SessionInfo = backend.Info
