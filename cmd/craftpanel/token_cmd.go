package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftpanel/craftpanel-go/internal/logs"
	"github.com/craftpanel/craftpanel-go/internal/token"
)

func getTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a console token from the running daemon",
		Long:  "Mint a short-lived console token. Useful for debugging the websocket endpoint with external tools.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logs.SetupCommandLogger(false, logLevel, false, logDir)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			baseURL, key, err := resolveCredentials()
			if err != nil {
				return err
			}

			tok, err := token.NewClient(baseURL, key, logger).FetchToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}
			return printJSON(tok)
		},
	}
	return cmd
}
