// Package dispatch routes model tool calls to backend sessions and
// normalizes every result, success or failure, into an Outcome.
//
// Dispatch never returns an error and never panics: one tool's failure must
// not abort the other calls requested in the same model turn.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/catalog"
	"github.com/jonwraymond/toolquery/llm"
)

// NoContent is the result text of a successful call that returned no text.
const NoContent = "No content"

// Reason classifies a failed Outcome.
type Reason string

// Failure reasons. The last four mirror backend.Reason.
const (
	ReasonMalformedToolName  Reason = "MalformedToolName"
	ReasonMalformedArguments Reason = "MalformedArguments"
	ReasonBackendUnavailable Reason = "BackendUnavailable"
	ReasonNotConnected       Reason = Reason(backend.ReasonNotConnected)
	ReasonUnknownTool        Reason = Reason(backend.ReasonUnknownTool)
	ReasonTransportFailure   Reason = Reason(backend.ReasonTransportFailure)
	ReasonToolError          Reason = "ToolError"
)

// Outcome is the result of one tool call. Exactly one of Result or Error is
// meaningful, as reported by OK.
type Outcome struct {
	// CallID is the id the model assigned to the call.
	CallID string `json:"-"`

	// QualifiedName is the name the model requested.
	QualifiedName string `json:"qualified_name"`

	Backend   string         `json:"backend,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// Result is the first text content of the tool result, or NoContent.
	Result string `json:"result,omitempty"`

	Reason Reason `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`

	// Err is the underlying error of a failed outcome.
	Err error `json:"-"`
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Reason == ""
}

// Sessions resolves a backend name to its session. *backend.Pool satisfies it.
type Sessions interface {
	Session(name string) (backend.Session, bool)
}

// Dispatch executes one tool call.
//
// The (backend, tool) pair comes from the catalog when it knows the name,
// otherwise from splitting the name on its first separator. cat may be nil.
func Dispatch(ctx context.Context, call llm.ToolCall, cat *catalog.Catalog, sessions Sessions) (out Outcome) {
	out = Outcome{CallID: call.ID, QualifiedName: call.Name}
	defer func() {
		if r := recover(); r != nil {
			out = fail(out, ReasonTransportFailure, fmt.Errorf("panic: %v", r))
		}
	}()

	ref, ok := resolve(call.Name, cat)
	if !ok {
		return fail(out, ReasonMalformedToolName,
			fmt.Errorf("tool name %q has no %q separator", call.Name, catalog.Separator))
	}
	out.Backend, out.Tool = ref.Backend, ref.Tool

	args, err := ParseArguments(call.Arguments)
	if err != nil {
		return fail(out, ReasonMalformedArguments, err)
	}
	out.Arguments = args

	var session backend.Session
	if sessions != nil {
		session, ok = sessions.Session(ref.Backend)
	}
	if session == nil || !ok || session.State() != backend.StateConnected {
		return fail(out, ReasonBackendUnavailable, fmt.Errorf("backend %q is not available", ref.Backend))
	}

	res, err := session.InvokeTool(ctx, ref.Tool, args)
	if err != nil {
		var ie *backend.InvocationError
		if errors.As(err, &ie) {
			return fail(out, Reason(ie.Reason), err)
		}
		return fail(out, ReasonTransportFailure, err)
	}

	text := FirstText(res)
	if res != nil && res.IsError {
		return fail(out, ReasonToolError, errors.New(text))
	}
	out.Result = text
	return out
}

// DispatchAll executes calls sequentially in request order and returns
// exactly one Outcome per call.
func DispatchAll(ctx context.Context, calls []llm.ToolCall, cat *catalog.Catalog, sessions Sessions) []Outcome {
	out := make([]Outcome, 0, len(calls))
	for _, call := range calls {
		out = append(out, Dispatch(ctx, call, cat, sessions))
	}
	return out
}

func resolve(name string, cat *catalog.Catalog) (catalog.Ref, bool) {
	if ref, ok := cat.Lookup(name); ok {
		return ref, true
	}
	b, t, found := strings.Cut(name, catalog.Separator)
	if !found || b == "" || t == "" {
		return catalog.Ref{}, false
	}
	return catalog.Ref{Backend: b, Tool: t}, true
}

// ParseArguments decodes raw model arguments into a JSON object. An empty or
// null payload is an empty object.
func ParseArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// FirstText returns the text of the first text content of res, or NoContent.
func FirstText(res *mcp.CallToolResult) string {
	if res == nil {
		return NoContent
	}
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return NoContent
}

func fail(o Outcome, reason Reason, err error) Outcome {
	o.Reason = reason
	o.Err = err
	o.Error = err.Error()
	o.Result = ""
	return o
}
