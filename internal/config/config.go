package config

import (
	"fmt"
	"time"
)

const (
	defaultListen = ":8080"

	// DefaultHistoryLines is the number of console lines replayed to a
	// subscriber that does not request a specific amount.
	DefaultHistoryLines = 100
)

// Config is the root configuration for the craftpanel daemon and CLI.
type Config struct {
	Listen  string `json:"listen"`
	DataDir string `json:"data_dir"`

	// APIKey protects the REST API and the console token endpoint. Required
	// for any TCP listener; requests without it are rejected with 401.
	APIKey string `json:"api_key,omitempty"`

	Game     *GameConfig     `json:"game,omitempty"`
	Console  *ConsoleConfig  `json:"console,omitempty"`
	Mods     *ModsConfig     `json:"mods,omitempty"`
	Versions *VersionsConfig `json:"versions,omitempty"`
	Logging  *LogConfig      `json:"logging,omitempty"`
	Tracing  *TracingConfig  `json:"tracing,omitempty"`
}

// GameConfig describes the game-server child process the gateway supervises.
type GameConfig struct {
	Command     string   `json:"command"`
	Args        []string `json:"args,omitempty"`
	WorkingDir  string   `json:"working_dir,omitempty"`
	StopCommand string   `json:"stop_command,omitempty"` // written to stdin on stop, e.g. "stop"
	StopTimeout int      `json:"stop_timeout_seconds,omitempty"`
	AutoStart   bool     `json:"auto_start"`
}

// ConsoleConfig carries the console connection and token parameters shared by
// the gateway and the attach client.
type ConsoleConfig struct {
	HistoryLines    int `json:"history_lines"`
	MaxRetries      int `json:"max_retries"`
	BaseDelayMs     int `json:"base_delay_ms"`
	MaxDelayMs      int `json:"max_delay_ms"`
	TokenTTLSeconds int `json:"token_ttl_seconds"`
}

// BaseDelay returns the reconnect base delay as a duration.
func (c *ConsoleConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the reconnect delay cap as a duration.
func (c *ConsoleConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

// TokenTTL returns the console token lifetime as a duration.
func (c *ConsoleConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// ModsConfig locates the mod directories managed by the panel.
type ModsConfig struct {
	Dir         string `json:"dir"`
	DisabledDir string `json:"disabled_dir,omitempty"`
}

// VersionsConfig controls the background release-manifest checker.
type VersionsConfig struct {
	ManifestURL          string `json:"manifest_url,omitempty"`
	CheckIntervalMinutes int    `json:"check_interval_minutes,omitempty"`

	// Current is the installed game server version, compared against the
	// manifest to flag available updates.
	Current string `json:"current,omitempty"`
}

// CheckInterval returns the manifest poll interval as a duration.
func (v *VersionsConfig) CheckInterval() time.Duration {
	return time.Duration(v.CheckIntervalMinutes) * time.Minute
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level         string `json:"level"`
	EnableFile    bool   `json:"enable_file"`
	EnableConsole bool   `json:"enable_console"`
	Filename      string `json:"filename"`
	LogDir        string `json:"log_dir,omitempty"`
	MaxSize       int    `json:"max_size"`    // MB
	MaxBackups    int    `json:"max_backups"` // number of backup files
	MaxAge        int    `json:"max_age"`     // days
	Compress      bool   `json:"compress"`
	JSONFormat    bool   `json:"json_format"`
}

// TracingConfig holds configuration for OpenTelemetry tracing.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name,omitempty"`
	ServiceVersion string  `json:"service_version,omitempty"`
	OTLPEndpoint   string  `json:"otlp_endpoint,omitempty"`
	SampleRate     float64 `json:"sample_rate,omitempty"`
}

// DefaultConfig returns a configuration with all defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Listen:  defaultListen,
		DataDir: "", // resolved to ~/.craftpanel by the loader
		Game: &GameConfig{
			StopCommand: "stop",
			StopTimeout: 10,
			AutoStart:   true,
		},
		Console: &ConsoleConfig{
			HistoryLines:    DefaultHistoryLines,
			MaxRetries:      10,
			BaseDelayMs:     1000,
			MaxDelayMs:      30000,
			TokenTTLSeconds: 60,
		},
		Mods: &ModsConfig{
			Dir: "mods",
		},
		Versions: &VersionsConfig{
			ManifestURL:          "https://api.papermc.io/v2/projects/paper",
			CheckIntervalMinutes: 240,
		},
		Logging: &LogConfig{
			Level:         "info",
			EnableFile:    true,
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
			JSONFormat:    false,
		},
		Tracing: &TracingConfig{
			Enabled:     false,
			ServiceName: "craftpanel",
			SampleRate:  1.0,
		},
	}
}

// Validate checks the configuration and fills in missing defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Game == nil {
		c.Game = def.Game
	}
	if c.Game.StopCommand == "" {
		c.Game.StopCommand = def.Game.StopCommand
	}
	if c.Game.StopTimeout <= 0 {
		c.Game.StopTimeout = def.Game.StopTimeout
	}
	if c.Console == nil {
		c.Console = def.Console
	}
	if c.Console.HistoryLines <= 0 {
		c.Console.HistoryLines = DefaultHistoryLines
	}
	if c.Console.MaxRetries <= 0 {
		c.Console.MaxRetries = def.Console.MaxRetries
	}
	if c.Console.BaseDelayMs <= 0 {
		c.Console.BaseDelayMs = def.Console.BaseDelayMs
	}
	if c.Console.MaxDelayMs < c.Console.BaseDelayMs {
		return fmt.Errorf("console.max_delay_ms (%d) must be >= base_delay_ms (%d)",
			c.Console.MaxDelayMs, c.Console.BaseDelayMs)
	}
	if c.Console.TokenTTLSeconds <= 0 {
		c.Console.TokenTTLSeconds = def.Console.TokenTTLSeconds
	}
	if c.Mods == nil {
		c.Mods = def.Mods
	}
	if c.Mods.Dir == "" {
		c.Mods.Dir = def.Mods.Dir
	}
	if c.Mods.DisabledDir == "" {
		c.Mods.DisabledDir = c.Mods.Dir + "-disabled"
	}
	if c.Versions == nil {
		c.Versions = def.Versions
	}
	if c.Versions.CheckIntervalMinutes <= 0 {
		c.Versions.CheckIntervalMinutes = def.Versions.CheckIntervalMinutes
	}
	if c.Logging == nil {
		c.Logging = def.Logging
	}
	if c.Tracing == nil {
		c.Tracing = def.Tracing
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "craftpanel"
	}
	if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
		c.Tracing.SampleRate = 1.0
	}
	return nil
}
