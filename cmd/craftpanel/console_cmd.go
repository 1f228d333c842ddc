package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/craftpanel/craftpanel-go/internal/console"
	"github.com/craftpanel/craftpanel-go/internal/logs"
	"github.com/craftpanel/craftpanel-go/internal/token"
	"github.com/craftpanel/craftpanel-go/internal/tui"
)

func getConsoleCommand() *cobra.Command {
	var historyLines int

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Attach an interactive console to the game server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logs.SetupCommandLogger(false, logLevel, logToFile, logDir)
			if err != nil {
				return fmt.Errorf("failed to setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			baseURL, key, err := resolveCredentials()
			if err != nil {
				return err
			}

			events := make(chan tea.Msg, 256)
			conn, err := console.New(console.Options{
				URL:           wsEndpoint(baseURL),
				TokenProvider: token.NewClient(baseURL, key, logger),
				HistoryLines:  historyLines,
				Logger:        logger,
				OnMessage: func(data []byte) {
					events <- tui.LineMsg(data)
				},
				OnStateChange: func(s console.State) {
					events <- tui.StateMsg(s)
				},
				OnClose: func(ev console.CloseEvent) {
					events <- tui.CloseMsg{Code: ev.Code, Reason: ev.Reason}
				},
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := conn.Connect(ctx); err != nil {
				logger.Warn("Initial connect failed; the console will show the error state", zap.Error(err))
			}
			defer conn.Disconnect()

			m := tui.NewModel(ctx, conn, events)
			p := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("console error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&historyLines, "history", 0, "Console lines to replay on attach (default 100)")
	return cmd
}

// wsEndpoint derives the console websocket URL from the HTTP base URL.
func wsEndpoint(baseURL string) string {
	ws := baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/ws/console"
}
