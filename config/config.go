package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// ProviderConfig selects and configures the LLM backend.
type ProviderConfig struct {
	Type    string `toml:"type"`     // "openai", "anthropic", or "ollama"
	BaseURL string `toml:"base_url"` // optional override of the provider endpoint
	APIKey  string `toml:"api_key"`  // required for openai/anthropic, unused for ollama
	Model   string `toml:"model"`
}

// AgentConfig holds the tunables for the question-answering loop.
type AgentConfig struct {
	MaxToolRounds int     `toml:"max_tool_rounds"`
	Temperature   float64 `toml:"temperature"`
	MaxTokens     int64   `toml:"max_tokens"`
}

// FileConfig is the on-disk TOML layout of config.toml.
type FileConfig struct {
	DataDirectory string         `toml:"data_directory"`
	Provider      ProviderConfig `toml:"provider"`
	Agent         AgentConfig    `toml:"agent"`
}

// Config is the resolved runtime configuration after defaults and
// environment overrides have been applied.
type Config struct {
	DataDirectory string
	Provider      ProviderConfig
	Agent         AgentConfig
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// DatabasePath returns the location of the imported chat-log database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir(), "chatlog.db")
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CHATLENS_PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("CHATLENS_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("CHATLENS_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("CHATLENS_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("CHATLENS_DATA_DIR"); v != "" {
		c.DataDirectory = v
	}
	if v := os.Getenv("CHATLENS_MAX_TOOL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.MaxToolRounds = n
		}
	}
}

func CheckDebug() bool {
	debug := os.Getenv("CHATLENS_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// Create debug log with secure permissions (0600 - may contain query text)
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
}
