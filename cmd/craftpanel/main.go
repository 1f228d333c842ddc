package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/craftpanel/craftpanel-go/internal/config"
)

var (
	configFile string
	dataDir    string
	listen     string
	logLevel   string
	logToFile  bool
	logDir     string

	serverURL string
	apiKey    string

	version = "v0.1.0" // This will be injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "craftpanel",
		Short:   "CraftPanel - game server admin panel with live console streaming",
		Version: version,
		RunE:    runServe,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default: ~/.craftpanel)")
	rootCmd.PersistentFlags().StringVarP(&listen, "listen", "l", "", "Listen address for the HTTP API")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", true, "Enable logging to file in standard OS location")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Panel address for client commands (default: stored or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Panel API key for client commands (default: stored or $CRAFTPANEL_API_KEY)")

	rootCmd.AddCommand(
		getServeCommand(),
		getConsoleCommand(),
		getSendCommand(),
		getStatusCommand(),
		getGameCommand(),
		getModsCommand(),
		getVersionsCommand(),
		getAuthCommand(),
		getTokenCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if listen != "" {
		cfg.Listen = listen
	}
	return cfg, nil
}
