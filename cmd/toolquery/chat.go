package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/toolquery/history"
)

// ChatCmd answers queries read from stdin within one conversation.
type ChatCmd struct {
	JSON bool `long:"json" description:"print each result as JSON"`

	root *Options
}

// Execute implements flags.Commander.
func (c *ChatCmd) Execute(_ []string) error {
	ctx, a, shutdown, err := c.root.start()
	if err != nil {
		return err
	}
	defer shutdown()

	fmt.Fprintln(c.root.out, "Available tools:")
	for _, name := range a.orch.Catalog().Names() {
		fmt.Fprintf(c.root.out, "  - %s\n", name)
	}
	fmt.Fprintln(c.root.out, `Type "history" to show the conversation, "quit" to exit.`)

	h := a.orch.History()
	return chat(ctx, a.orch, h, h.NewSession(), c.root.in, c.root.out, c.JSON)
}

// chat reads one query per line until EOF, "quit" or ctx is done.
func chat(ctx context.Context, q querier, h *history.Store, sessionID string, in io.Reader, out io.Writer, asJSON bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "history":
			text, err := h.Format(sessionID, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			continue
		}

		res := q.ProcessSessionQuery(ctx, sessionID, line)
		if err := printResult(out, res, asJSON); err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Repeat("-", 60))
	}
}
