// Package llm wraps an OpenAI-compatible chat completions API with tool calling.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Message is one entry in the completion context window.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and raw JSON arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool is a function definition offered to the model.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes a callable function and its JSON-schema parameters.
type FunctionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Request is a single completion call. Tools may be nil for plain completions.
type Request struct {
	Messages []Message
	Tools    []Tool
}

// Response is the assistant turn the model produced.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Completer issues one completion round-trip. Implementations must be safe
// for concurrent use; the service holds a single instance for its lifetime.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Client talks to an OpenAI-compatible /v1/chat/completions endpoint.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient constructs a Client. The client is built once at process start
// and passed to the chat service; there is no package-level instance.
func NewClient(baseURL, apiKey, model string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)
	return &Client{http: c, model: model}
}

type wireRequest struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Tools      []Tool    `json:"tools,omitempty"`
	ToolChoice string    `json:"tool_choice,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs one chat completion round-trip. Tool choice is "auto"
// whenever tools are supplied.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	body := wireRequest{
		Model:    c.model,
		Messages: req.Messages,
		Tools:    req.Tools,
	}
	if len(req.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	var out wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		if out.Error != nil {
			return nil, fmt.Errorf("completion API error (%s): %s", out.Error.Type, out.Error.Message)
		}
		return nil, fmt.Errorf("completion API status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("completion API returned no choices")
	}

	msg := out.Choices[0].Message
	return &Response{Content: msg.Content, ToolCalls: msg.ToolCalls}, nil
}
