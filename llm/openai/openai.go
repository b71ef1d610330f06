// Package openai implements llm.Client for OpenAI-compatible chat
// completion endpoints, including Groq.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/toolquery/llm"
	goopenai "github.com/sashabaranov/go-openai"
)

// Defaults target Groq's OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
)

// ErrAPIKeyRequired is returned by New when no API key is configured.
var ErrAPIKeyRequired = errors.New("openai: API key is required")

// Options configures a Client.
type Options struct {
	// APIKey authenticates requests.
	// Required.
	APIKey string

	// BaseURL is the API root. Default: DefaultBaseURL.
	BaseURL string

	// Model is the model name. Default: DefaultModel.
	Model string

	// Temperature is passed through when non-zero.
	Temperature float32
}

// Client is an llm.Client backed by go-openai.
type Client struct {
	client *goopenai.Client
	opts   Options
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	cfg := goopenai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{client: goopenai.NewClientWithConfig(cfg), opts: opts}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.opts.Model
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool, choice llm.ToolChoice) (llm.Message, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    toMessages(messages),
		Temperature: c.opts.Temperature,
	}
	if len(tools) > 0 {
		req.Tools = toTools(tools)
		if choice != "" {
			req.ToolChoice = string(choice)
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Message{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Message{}, llm.ErrEmptyResponse
	}
	return fromMessage(resp.Choices[0].Message), nil
}

func toMessages(messages []llm.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := goopenai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toTools(tools []llm.Tool) []goopenai.Tool {
	out := make([]goopenai.Tool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func fromMessage(m goopenai.ChatCompletionMessage) llm.Message {
	out := llm.Message{
		Role:    llm.RoleAssistant,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}
