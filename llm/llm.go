// Package llm defines the language-model collaborator used by the
// orchestrator: a chat completion endpoint with function calling.
//
// Providers live in subpackages:
//
//   - llm/openai: OpenAI-compatible endpoints (OpenAI, Groq, vLLM, ...)
//   - llm/ollama: a local Ollama server
//   - llm/anthropic: the Anthropic messages API
package llm

import (
	"context"
	"errors"
	"strings"
)

// Role is the author of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolChoice controls whether the model may call tools.
type ToolChoice string

// Tool choices.
const (
	// ToolChoiceAuto lets the model choose zero, one or many tools.
	ToolChoiceAuto ToolChoice = "auto"

	// ToolChoiceNone forbids tool calls.
	ToolChoiceNone ToolChoice = "none"
)

// ErrEmptyResponse is returned by providers when the endpoint answers
// without any choice or content block.
var ErrEmptyResponse = errors.New("llm: empty response")

// Message is one entry of a chat transcript.
type Message struct {
	Role    Role
	Content string

	// ToolCalls are the calls requested by an assistant message.
	ToolCalls []ToolCall

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID string

	// Name is the qualified tool name as advertised in the catalog.
	Name string

	// Arguments is the raw JSON text produced by the model. It has not
	// been validated.
	Arguments string
}

// Tool is a function the model may call.
type Tool struct {
	Name        string
	Description string

	// Parameters is a JSON schema object describing the arguments.
	Parameters map[string]any
}

// Client is a chat completion endpoint with function calling.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Complete must honor cancellation/deadlines.
// - Tools: an empty tools slice degrades to a plain completion.
type Client interface {
	Complete(ctx context.Context, messages []Message, tools []Tool, choice ToolChoice) (Message, error)
}

// Func adapts a function to the Client interface.
type Func func(ctx context.Context, messages []Message, tools []Tool, choice ToolChoice) (Message, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, messages []Message, tools []Tool, choice ToolChoice) (Message, error) {
	return f(ctx, messages, tools, choice)
}

// System builds a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// SystemPrompt joins the content of every system message, for providers that
// take the system prompt out of band.
func SystemPrompt(messages []Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == RoleSystem && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ParameterSchema splits a JSON schema object into its properties and
// required list.
func ParameterSchema(schema map[string]any) (properties map[string]any, required []string) {
	properties = map[string]any{}
	if props, ok := schema["properties"].(map[string]any); ok {
		properties = props
	}
	switch req := schema["required"].(type) {
	case []string:
		required = append(required, req...)
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	return properties, required
}
