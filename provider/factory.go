package provider

import (
	"fmt"

	"chatlens/config"
	"chatlens/model"
)

// New creates a provider from configuration.
//
// This is the centralized factory for all provider types. It dispatches on
// cfg.Type and returns an error if the type is unknown or the provider's
// constructor fails (e.g. missing API key).
func New(cfg config.ProviderConfig) (model.Provider, error) {
	switch Type(cfg.Type) {
	case TypeOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case TypeAnthropic:
		return NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case TypeOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
