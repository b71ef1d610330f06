package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/toolquery/orchestrator"
)

// QueryCmd answers one query.
type QueryCmd struct {
	JSON bool `long:"json" description:"print the full result as JSON"`

	Args struct {
		Query []string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`

	root *Options
}

// Execute implements flags.Commander.
func (c *QueryCmd) Execute(_ []string) error {
	query := strings.TrimSpace(strings.Join(c.Args.Query, " "))
	if query == "" {
		return errors.New("query is empty")
	}

	ctx, a, shutdown, err := c.root.start()
	if err != nil {
		return err
	}
	defer shutdown()

	res := a.orch.ProcessQuery(ctx, query)
	if err := printResult(c.root.out, res, c.JSON); err != nil {
		return err
	}
	if !res.Success {
		return errors.New(res.Error)
	}
	return nil
}

// querier is the part of the orchestrator the commands drive.
type querier interface {
	ProcessSessionQuery(ctx context.Context, sessionID, query string) orchestrator.QueryResult
}

func printResult(w io.Writer, res orchestrator.QueryResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if !res.Success {
		_, err := fmt.Fprintf(w, "Error: %s\n", res.Error)
		return err
	}
	if len(res.ToolsUsed) > 0 {
		if _, err := fmt.Fprintf(w, "Tools used: %s\n\n", strings.Join(res.ToolsUsed, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, res.FinalAnswer)
	return err
}
