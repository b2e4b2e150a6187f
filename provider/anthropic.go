package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"chatlens/model"
)

const anthropicDefaultMaxTokens = 4096

// AnthropicProvider implements model.Provider using Anthropic's official API.
// It uses the official Anthropic Go SDK for direct Claude API access.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
	apiKey  string
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: Initial model to use (default: claude-sonnet-4-5)
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	var anthropicModel anthropic.Model
	if model == "" {
		anthropicModel = anthropic.ModelClaudeSonnet4_5_20250929
	} else {
		anthropicModel = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

func (p *AnthropicProvider) buildParams(messages []model.Message, opts model.ChatOptions) anthropic.MessageNewParams {
	anthropicMessages, systemBlocks := ConvertToAnthropicMessages(messages)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens // required by the Anthropic API
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  anthropicMessages,
		MaxTokens: maxTokens,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if len(opts.Tools) > 0 {
		params.Tools = ConvertToolsToAnthropicFormat(opts.Tools)
	}
	return params
}

// Complete implements model.Provider.Complete with a single buffered request.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []model.Message, opts model.ChatOptions) (*model.Completion, error) {
	msg, err := p.client.Messages.New(ctx, p.buildParams(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("Anthropic completion error: %w", err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(text.Text)
		}
	}

	return &model.Completion{
		Content:      content.String(),
		FinishReason: string(msg.StopReason),
		ToolCalls:    ExtractAnthropicToolCalls(msg.Content),
	}, nil
}

// Stream implements model.Provider.Stream. Events are accumulated into a
// message so tool calls can be extracted once the stream completes; text
// deltas are forwarded to the callback as they arrive.
func (p *AnthropicProvider) Stream(ctx context.Context, messages []model.Message, opts model.ChatOptions, callback model.StreamCallback) error {
	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(messages, opts))

	msg := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()

		if err := msg.Accumulate(event); err != nil {
			return fmt.Errorf("error accumulating message: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if err := callback(model.StreamChunk{Text: deltaVariant.Text}); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("Anthropic streaming error: %w", err)
	}

	return callback(model.StreamChunk{
		ToolCalls:    ExtractAnthropicToolCalls(msg.Content),
		Final:        true,
		FinishReason: string(msg.StopReason),
	})
}

// GetModel implements model.Provider.GetModel.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// SetModel implements model.Provider.SetModel.
func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}
