package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chatlens/model"
)

// OpenAIProvider implements model.Provider using OpenAI's official API.
// It uses the official OpenAI Go SDK for direct OpenAI API access.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: Initial model to use (default: "gpt-4o-mini")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

func (p *OpenAIProvider) buildParams(messages []model.Message, opts model.ChatOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(messages),
		Model:    openai.ChatModel(p.model),
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(opts.MaxTokens)
	}
	if len(opts.Tools) > 0 {
		params.Tools = ConvertToolsToOpenAIFormat(opts.Tools)
	}
	return params
}

// Complete implements model.Provider.Complete with a single buffered request.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []model.Message, opts model.ChatOptions) (*model.Completion, error) {
	completion, err := p.client.Chat.Completions.New(ctx, p.buildParams(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("OpenAI completion error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	choice := completion.Choices[0]
	result := &model.Completion{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = uuid.New().String()
		}
		result.ToolCalls = append(result.ToolCalls, model.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return result, nil
}

// Stream implements model.Provider.Stream. Text deltas are forwarded as they
// arrive; tool calls are surfaced as the accumulator finishes each one, and
// the final chunk carries the full set plus the finish reason.
func (p *OpenAIProvider) Stream(ctx context.Context, messages []model.Message, opts model.ChatOptions, callback model.StreamCallback) error {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(messages, opts))
	acc := openai.ChatCompletionAccumulator{}

	var toolCalls []model.ToolCall

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if tool, ok := acc.JustFinishedToolCall(); ok {
			id := tool.ID
			if id == "" {
				id = uuid.New().String()
			}
			toolCalls = append(toolCalls, model.ToolCall{
				ID:        id,
				Name:      tool.Name,
				Arguments: json.RawMessage(tool.Arguments),
			})
			if err := callback(model.StreamChunk{ToolCalls: toolCalls}); err != nil {
				return err
			}
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := callback(model.StreamChunk{Text: chunk.Choices[0].Delta.Content}); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}

	finishReason := ""
	if len(acc.Choices) > 0 {
		finishReason = string(acc.Choices[0].FinishReason)
	}
	return callback(model.StreamChunk{
		ToolCalls:    toolCalls,
		Final:        true,
		FinishReason: finishReason,
	})
}

// GetModel implements model.Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// SetModel implements model.Provider.SetModel.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}
