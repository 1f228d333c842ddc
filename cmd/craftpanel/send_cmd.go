package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/craftpanel/craftpanel-go/internal/console"
	"github.com/craftpanel/craftpanel-go/internal/logs"
	"github.com/craftpanel/craftpanel-go/internal/token"
)

func getSendCommand() *cobra.Command {
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "send <command>",
		Short: "Send a single command to the game server console",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logs.SetupCommandLogger(false, logLevel, false, logDir)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			baseURL, key, err := resolveCredentials()
			if err != nil {
				return err
			}

			states := make(chan console.State, 8)
			conn, err := console.New(console.Options{
				URL:           wsEndpoint(baseURL),
				TokenProvider: token.NewClient(baseURL, key, logger),
				MaxRetries:    1,
				Logger:        logger,
				OnStateChange: func(s console.State) {
					states <- s
				},
			})
			if err != nil {
				return err
			}
			defer conn.Disconnect()

			if err := conn.Connect(cmd.Context()); err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}

			deadline := time.After(time.Duration(timeoutSeconds) * time.Second)
			for {
				select {
				case s := <-states:
					switch s {
					case console.StateConnected:
						text := strings.Join(args, " ")
						if err := conn.SendCommand(text); err != nil {
							return fmt.Errorf("failed to send command: %w", err)
						}
						return nil
					case console.StateForbidden, console.StateTokenError:
						return fmt.Errorf("console access denied: %s", s.Info().Description)
					}
				case <-deadline:
					return fmt.Errorf("timed out waiting for console connection")
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
		},
	}

	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 15, "Seconds to wait for the connection")
	return cmd
}
