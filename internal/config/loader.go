package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultDataDir = ".craftpanel"
	ConfigFileName = "craftpanel.json"

	// EnvAPIKey overrides the configured API key. Takes precedence over the
	// config file so deployments can keep the key out of it entirely.
	EnvAPIKey = "CRAFTPANEL_API_KEY"

	// EnvDataDir overrides the data directory.
	EnvDataDir = "CRAFTPANEL_DATA_DIR"
)

// LoadFromFile loads configuration from configPath, falling back to the
// default location under the data directory when configPath is empty. A
// missing default file is not an error; defaults are used and a starter
// config is written for the operator to edit.
func LoadFromFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if cfg.DataDir == "" {
		if env := os.Getenv(EnvDataDir); env != "" {
			cfg.DataDir = env
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			cfg.DataDir = filepath.Join(homeDir, DefaultDataDir)
		}
	}

	if configPath == "" {
		configPath = filepath.Join(cfg.DataDir, ConfigFileName)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
			}
			if err := writeConfigFile(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to create default config file: %w", err)
			}
		} else {
			if err := loadConfigFile(configPath, cfg); err != nil {
				return nil, err
			}
		}
	} else {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, err
		}
	}

	if env := os.Getenv(EnvDataDir); env != "" {
		cfg.DataDir = env
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	if env := os.Getenv(EnvAPIKey); env != "" {
		cfg.APIKey = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Save persists the configuration back to path.
func Save(path string, cfg *Config) error {
	return writeConfigFile(path, cfg)
}
