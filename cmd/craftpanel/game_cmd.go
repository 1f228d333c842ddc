package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getGameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Control the supervised game server process",
	}

	for _, action := range []string{"start", "stop", "restart"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the game server", capitalize(action)),
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, logger, err := newPanelClient()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()

				if err := client.GameAction(cmd.Context(), action); err != nil {
					return fmt.Errorf("failed to %s game server: %w", action, err)
				}
				fmt.Printf("Game server %s requested\n", action)
				return nil
			},
		})
	}

	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
