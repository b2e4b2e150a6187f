package provider

import (
	"testing"

	"chatlens/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ProviderConfig
		wantErr bool
	}{
		{
			name:    "unknown type",
			cfg:     config.ProviderConfig{Type: "mystery"},
			wantErr: true,
		},
		{
			name:    "openai without api key",
			cfg:     config.ProviderConfig{Type: "openai"},
			wantErr: true,
		},
		{
			name:    "anthropic without api key",
			cfg:     config.ProviderConfig{Type: "anthropic"},
			wantErr: true,
		},
		{
			name: "ollama with defaults",
			cfg:  config.ProviderConfig{Type: "ollama"},
		},
		{
			name: "openai with api key",
			cfg:  config.ProviderConfig{Type: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p == nil {
				t.Fatal("New() returned nil provider")
			}
		})
	}
}

func TestSetModel(t *testing.T) {
	p, err := NewOpenAIProvider("", "sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	if p.GetModel() != "gpt-4o-mini" {
		t.Errorf("GetModel() = %q", p.GetModel())
	}
	p.SetModel("gpt-4o")
	if p.GetModel() != "gpt-4o" {
		t.Errorf("GetModel() after SetModel = %q", p.GetModel())
	}
}
