package config

// DefaultMaxToolRounds bounds the tool-calling loop; the agent falls back
// to a forced summary once the budget is spent.
const DefaultMaxToolRounds = 5

const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2048
)

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		DataDirectory: "~/.local/share/chatlens",
		Provider: ProviderConfig{
			Type:  "ollama",
			Model: "llama3.1:latest",
		},
		Agent: AgentConfig{
			MaxToolRounds: DefaultMaxToolRounds,
			Temperature:   DefaultTemperature,
			MaxTokens:     DefaultMaxTokens,
		},
	}
}

func GenerateConfigTemplate() string {
	return `# chatlens Configuration
# Location: ~/.config/chatlens/config.toml
# This file uses TOML format: https://toml.io

# Directory where the imported chat-log database is stored
data_directory = "~/.local/share/chatlens"

[provider]
# Provider type: "openai", "anthropic", or "ollama"
type = "ollama"

# Provider endpoint override (optional)
# openai default:    https://api.openai.com/v1
# anthropic default: https://api.anthropic.com
# ollama default:    http://localhost:11434
base_url = ""

# API key (required for openai/anthropic, unused for ollama)
api_key = ""

# Model to use
model = "llama3.1:latest"

[agent]
# Maximum tool-calling rounds before the agent is forced to answer
max_tool_rounds = 5

# Sampling temperature and output token cap for model calls
temperature = 0.2
max_tokens = 2048
`
}
