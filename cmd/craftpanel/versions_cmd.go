package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftpanel/craftpanel-go/internal/versions"
)

func getVersionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect available game server versions",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the cached release-check result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, logger, err := newPanelClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			info, err := client.Versions(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch versions: %w", err)
			}
			return renderVersions(info, asJSON)
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Force an immediate release-manifest check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, logger, err := newPanelClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			info, err := client.RefreshVersions(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			return renderVersions(info, asJSON)
		},
	}
	refreshCmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")

	cmd.AddCommand(listCmd, refreshCmd)
	return cmd
}

func renderVersions(info *versions.VersionInfo, asJSON bool) error {
	if asJSON {
		return printJSON(info)
	}

	fmt.Printf("Installed: %s\n", info.CurrentVersion)
	if info.LatestVersion != "" {
		fmt.Printf("Latest:    %s\n", info.LatestVersion)
	}
	if info.UpdateAvailable {
		fmt.Println("An update is available")
	}
	if info.CheckError != "" {
		fmt.Printf("Last check failed: %s\n", info.CheckError)
	}
	if info.CheckedAt != nil {
		fmt.Printf("Checked:   %s\n", info.CheckedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
