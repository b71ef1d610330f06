package llm

import (
	"context"
	"testing"
)

func TestFunc(t *testing.T) {
	var gotChoice ToolChoice
	client := Func(func(_ context.Context, msgs []Message, _ []Tool, choice ToolChoice) (Message, error) {
		gotChoice = choice
		return Assistant("echo: " + msgs[len(msgs)-1].Content), nil
	})

	msg, err := client.Complete(context.Background(), []Message{User("hi")}, nil, ToolChoiceAuto)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if msg.Content != "echo: hi" {
		t.Errorf("Content = %q, want %q", msg.Content, "echo: hi")
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if gotChoice != ToolChoiceAuto {
		t.Errorf("choice = %q, want %q", gotChoice, ToolChoiceAuto)
	}
}

func TestSystemPrompt(t *testing.T) {
	msgs := []Message{System("be brief"), User("q"), System("cite sources")}
	if got := SystemPrompt(msgs); got != "be brief\n\ncite sources" {
		t.Errorf("SystemPrompt() = %q", got)
	}
	if got := SystemPrompt([]Message{User("q")}); got != "" {
		t.Errorf("SystemPrompt() without system messages = %q, want empty", got)
	}
}

func TestParameterSchema(t *testing.T) {
	tests := []struct {
		name         string
		schema       map[string]any
		wantProps    int
		wantRequired []string
	}{
		{
			name: "any required",
			schema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []any{"query"},
			},
			wantProps:    1,
			wantRequired: []string{"query"},
		},
		{
			name: "string required",
			schema: map[string]any{
				"properties": map[string]any{"a": map[string]any{}, "b": map[string]any{}},
				"required":   []string{"a", "b"},
			},
			wantProps:    2,
			wantRequired: []string{"a", "b"},
		},
		{
			name:      "empty",
			schema:    nil,
			wantProps: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, req := ParameterSchema(tt.schema)
			if len(props) != tt.wantProps {
				t.Errorf("properties = %v, want %d entries", props, tt.wantProps)
			}
			if len(req) != len(tt.wantRequired) {
				t.Fatalf("required = %v, want %v", req, tt.wantRequired)
			}
			for i := range req {
				if req[i] != tt.wantRequired[i] {
					t.Errorf("required[%d] = %q, want %q", i, req[i], tt.wantRequired[i])
				}
			}
		})
	}
}
