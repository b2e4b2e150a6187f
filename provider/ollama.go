package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"chatlens/model"
)

// OllamaProvider implements model.Provider against a local Ollama server.
//
// Ollama's API does not assign ids to tool calls, so the conversion layer
// generates one per call; tool-result messages back-reference those ids
// only on the chatlens side.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL. If empty, defaults to
//     "http://localhost:11434".
//   - model: The model name to use (e.g. "llama3.1:latest").
//     If empty, defaults to "llama3.1:latest".
//
// Returns an error if the baseURL cannot be parsed.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaProvider{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) buildRequest(messages []model.Message, opts model.ChatOptions, stream bool) *api.ChatRequest {
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: ConvertToOllamaMessages(messages),
		Stream:   &stream,
	}
	if len(opts.Tools) > 0 {
		req.Tools = ConvertToolsToOllamaFormat(opts.Tools)
	}

	options := make(map[string]any)
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) > 0 {
		req.Options = options
	}
	return req
}

// Complete implements model.Provider.Complete with a non-streaming request.
func (p *OllamaProvider) Complete(ctx context.Context, messages []model.Message, opts model.ChatOptions) (*model.Completion, error) {
	result := &model.Completion{}

	err := p.client.Chat(ctx, p.buildRequest(messages, opts, false), func(resp api.ChatResponse) error {
		result.Content += resp.Message.Content
		result.ToolCalls = append(result.ToolCalls, ConvertFromOllamaToolCalls(resp.Message.ToolCalls)...)
		if resp.Done {
			result.FinishReason = resp.DoneReason
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Ollama chat error: %w", err)
	}

	return result, nil
}

// Stream implements model.Provider.Stream using Ollama's chunked responses.
func (p *OllamaProvider) Stream(ctx context.Context, messages []model.Message, opts model.ChatOptions, callback model.StreamCallback) error {
	var toolCalls []model.ToolCall

	err := p.client.Chat(ctx, p.buildRequest(messages, opts, true), func(resp api.ChatResponse) error {
		if calls := ConvertFromOllamaToolCalls(resp.Message.ToolCalls); len(calls) > 0 {
			toolCalls = append(toolCalls, calls...)
			if err := callback(model.StreamChunk{ToolCalls: toolCalls}); err != nil {
				return err
			}
		}

		if resp.Message.Content != "" {
			if err := callback(model.StreamChunk{Text: resp.Message.Content}); err != nil {
				return err
			}
		}

		if resp.Done {
			return callback(model.StreamChunk{
				ToolCalls:    toolCalls,
				Final:        true,
				FinishReason: resp.DoneReason,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Ollama streaming error: %w", err)
	}
	return nil
}

// GetModel implements model.Provider.GetModel.
func (p *OllamaProvider) GetModel() string {
	return p.model
}

// SetModel implements model.Provider.SetModel.
func (p *OllamaProvider) SetModel(model string) {
	p.model = model
}
