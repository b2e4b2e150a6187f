// Package model defines the provider-agnostic types shared between the
// agent loop, the tool layer, and the LLM provider implementations.
//
// The Provider interface is defined here (not in the provider package) so
// provider implementations can import model without creating a cycle, the
// same way the agent and tool layers consume it.
package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Completion is a fully-buffered model response.
type Completion struct {
	Content      string
	FinishReason string
	ToolCalls    []ToolCall
}

// StreamChunk is one increment of a streamed model response. Text carries a
// fragment to forward immediately; ToolCalls carries the (possibly still
// accumulating) tool decision; Final marks the end of the response, at which
// point FinishReason is set.
type StreamChunk struct {
	Text         string
	ToolCalls    []ToolCall
	Final        bool
	FinishReason string
}

// StreamCallback is called for each chunk of a streamed response. Returning
// an error stops the stream and propagates the error to the caller.
type StreamCallback func(chunk StreamChunk) error

// ChatOptions configures a single model call. Leaving Tools empty disables
// tool use for that call, which is how the agent guarantees its forced-finish
// round cannot request more tools.
type ChatOptions struct {
	Tools       []mcptypes.Tool
	Temperature float64
	MaxTokens   int64
}

// Provider abstracts LLM provider implementations (OpenAI, Anthropic, Ollama)
// using provider-agnostic types from the model layer.
type Provider interface {
	// Complete sends the conversation and returns the full response.
	Complete(ctx context.Context, messages []Message, opts ChatOptions) (*Completion, error)

	// Stream sends the conversation and delivers the response incrementally
	// via callback. The last chunk delivered has Final set.
	Stream(ctx context.Context, messages []Message, opts ChatOptions, callback StreamCallback) error

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)
}
