package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func getStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show panel daemon and game server status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, logger, err := newPanelClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			info, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch status: %w", err)
			}

			if asJSON {
				return printJSON(info)
			}

			fmt.Printf("Panel:       %s (up %s)\n", client.BaseURL(),
				(time.Duration(info.UptimeSeconds) * time.Second).String())
			fmt.Printf("Subscribers: %d\n", info.Subscribers)
			if status, ok := info.Game["status"].(string); ok {
				fmt.Printf("Game:        %s\n", status)
				if lastErr, ok := info.Game["last_error"].(string); ok && lastErr != "" {
					fmt.Printf("Last error:  %s\n", lastErr)
				}
			}
			if v := info.Versions; v != nil {
				fmt.Printf("Version:     %s", v.CurrentVersion)
				if v.UpdateAvailable {
					fmt.Printf(" (update available: %s)", v.LatestVersion)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}
