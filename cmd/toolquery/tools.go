package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jonwraymond/toolquery/catalog"
	"github.com/jonwraymond/toolquery/orchestrator"
)

// ToolsCmd prints the tools the model can call.
//
// Without flags it prints every qualified name with its description. With
// --search it ranks the tools against a free-text query instead.
type ToolsCmd struct {
	Search string `short:"s" long:"search" description:"rank tools by relevance to this text"`
	Limit  int    `short:"n" long:"limit" default:"10" description:"maximum search results"`
	JSON   bool   `long:"json" description:"print the catalog as sent to the model"`

	root *Options
}

// Execute implements flags.Commander.
func (c *ToolsCmd) Execute(_ []string) error {
	_, a, shutdown, err := c.root.start()
	if err != nil {
		return err
	}
	defer shutdown()

	return printTools(c.root.out, a.orch.Catalog(), c.Search, c.Limit, c.JSON)
}

func printTools(w io.Writer, cat *catalog.Catalog, search string, limit int, asJSON bool) error {
	entries := cat.Entries()
	if search != "" {
		var err error
		if entries, err = cat.Search(search, limit); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if search == "" {
			return enc.Encode(cat)
		}
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no tools available")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.QualifiedName, e.Description)
	}
	return tw.Flush()
}

// SessionsCmd prints every backend and its connection state.
type SessionsCmd struct {
	root *Options
}

// Execute implements flags.Commander.
func (c *SessionsCmd) Execute(_ []string) error {
	_, a, shutdown, err := c.root.start()
	if err != nil {
		return err
	}
	defer shutdown()

	return printSessions(c.root.out, a.orch.Sessions())
}

func printSessions(w io.Writer, sessions []orchestrator.SessionInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tKIND\tSTATE\tTOOLS\tERROR")
	for _, s := range sessions {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Kind, s.State, len(s.Tools), errText)
	}
	return tw.Flush()
}
