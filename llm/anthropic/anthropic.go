// Package anthropic implements llm.Client with the Anthropic messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jonwraymond/toolquery/llm"
)

// Defaults.
const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 1024
)

// ErrAPIKeyRequired is returned by New when no API key is configured.
var ErrAPIKeyRequired = errors.New("anthropic: API key is required")

// Options configures a Client.
type Options struct {
	// APIKey authenticates requests.
	// Required.
	APIKey string

	// Model is the model name. Default: DefaultModel.
	Model string

	// MaxTokens caps each response. Default: DefaultMaxTokens.
	MaxTokens int

	// BaseURL overrides the API root.
	BaseURL string
}

// Client is an llm.Client backed by anthropic-sdk-go.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	reqOpts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, anthropicopt.WithBaseURL(opts.BaseURL))
	}
	return &Client{
		client:    sdk.NewClient(reqOpts...),
		model:     opts.Model,
		maxTokens: int64(opts.MaxTokens),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one messages request. System messages are lifted into the
// system prompt and consecutive tool results are folded into one user turn.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool, choice llm.ToolChoice) (llm.Message, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  toMessages(messages),
	}
	if sys := llm.SystemPrompt(messages); sys != "" {
		params.System = []sdk.TextBlockParam{{Text: sys}}
	}
	if len(tools) > 0 && choice != llm.ToolChoiceNone {
		params.Tools = toTools(tools)
		params.ToolChoice = sdk.ToolChoiceUnionParam{OfAuto: &sdk.ToolChoiceAutoParam{}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Message{}, fmt.Errorf("anthropic: messages: %w", err)
	}
	if len(resp.Content) == 0 {
		return llm.Message{}, llm.ErrEmptyResponse
	}
	return fromContent(resp.Content), nil
}

func toMessages(messages []llm.Message) []sdk.MessageParam {
	var (
		out     []sdk.MessageParam
		results []sdk.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			out = append(out, sdk.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			continue
		case llm.RoleTool:
			results = append(results, sdk.NewToolResultBlock(m.ToolCallID, m.Content, false))
			continue
		}
		flush()

		switch m.Role {
		case llm.RoleAssistant:
			var blocks []sdk.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		default:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	flush()
	return out
}

func toolInput(arguments string) any {
	var input map[string]any
	if err := json.Unmarshal([]byte(arguments), &input); err != nil || input == nil {
		return map[string]any{}
	}
	return input
}

func toTools(tools []llm.Tool) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		props, required := llm.ParameterSchema(t.Parameters)
		tool := &sdk.ToolParam{
			Name: t.Name,
			InputSchema: sdk.ToolInputSchemaParam{
				Properties: props,
				Required:   required,
			},
		}
		if t.Description != "" {
			tool.Description = sdk.String(t.Description)
		}
		out = append(out, sdk.ToolUnionParam{OfTool: tool})
	}
	return out
}

func fromContent(blocks []sdk.ContentBlockUnion) llm.Message {
	out := llm.Message{Role: llm.RoleAssistant}
	var text strings.Builder
	for _, block := range blocks {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			text.WriteString(b.Text)
		case sdk.ToolUseBlock:
			args := string(b.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	out.Content = text.String()
	return out
}
