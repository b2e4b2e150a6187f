package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads config.toml (creating a commented default on first run),
// applies environment overrides, and resolves the runtime Config.
func Load() (*Config, error) {
	fileCfg := DefaultFileConfig()
	settingsPath := GetSettingsFilePath()

	if !FileExists(settingsPath) {
		if err := CreateDefaultConfig(); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
	} else {
		_, err := toml.DecodeFile(settingsPath, fileCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg := &Config{
		DataDirectory: fileCfg.DataDirectory,
		Provider:      fileCfg.Provider,
		Agent:         fileCfg.Agent,
	}

	if cfg.Agent.MaxToolRounds <= 0 {
		cfg.Agent.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = DefaultMaxTokens
	}

	cfg.applyEnvOverrides()

	if err := EnsureDir(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Save writes the file config back to config.toml.
func Save(fileCfg *FileConfig) error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := GetSettingsFilePath()
	// Create with secure permissions (0600 - contains API keys)
	f, err := os.OpenFile(settingsPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(fileCfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes the commented template if no config exists yet.
func CreateDefaultConfig() error {
	configDir := GetConfigDir()
	if err := EnsureDir(configDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := GetSettingsFilePath()
	if FileExists(settingsPath) {
		return nil
	}

	content := GenerateConfigTemplate()
	if err := os.WriteFile(settingsPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
