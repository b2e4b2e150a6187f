// Package provider implements model.Provider for the supported LLM backends.
//
// chatlens supports three providers (OpenAI, Anthropic, Ollama) behind the
// common interface defined in the model package. The agent and tool layers
// stay provider-agnostic; all conversions between chatlens types and each
// SDK's wire types live here, in conversions.go.
//
// # Architecture
//
//   - model.Provider defines the contract (model/provider.go, to avoid
//     import cycles)
//   - provider.OpenAIProvider implements it via the official OpenAI SDK
//   - provider.AnthropicProvider implements it via the official Anthropic SDK
//   - provider.OllamaProvider implements it via the Ollama API client
//   - provider.New() factory creates providers from config
//
// # Usage
//
//	p, err := provider.New(cfg.Provider)
//	if err != nil {
//	    // handle error
//	}
//	completion, err := p.Complete(ctx, messages, opts)
package provider

// Type identifies the provider implementation.
type Type string

const (
	TypeOpenAI    Type = "openai"
	TypeAnthropic Type = "anthropic"
	TypeOllama    Type = "ollama"
)
