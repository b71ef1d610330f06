// Package server holds what the bundled tool servers share: the JSON result
// encoding and the stdio run loop.
//
// Tool servers answer with a JSON object as text content. A failed
// operation is still a successful tool call with "success": false, so the
// client can pass the error on to the model.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// JSON encodes v as the text content of a tool result. It is shaped to be
// returned directly from an mcp.ToolHandlerFor with an any output.
func JSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// Run serves srv on t until ctx is done or the client hangs up. A nil t
// means stdin/stdout.
func Run(ctx context.Context, srv *mcp.Server, t mcp.Transport, log zerolog.Logger) error {
	if t == nil {
		t = &mcp.StdioTransport{}
	}
	log.Info().Msg("serving")
	err := srv.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mcp.ErrConnectionClosed) {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}
