package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getModsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mods",
		Short: "Manage installed mods",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List installed mods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, logger, err := newPanelClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			records, err := client.ListMods(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list mods: %w", err)
			}
			if asJSON {
				return printJSON(records)
			}
			if len(records) == 0 {
				fmt.Println("No mods installed")
				return nil
			}
			fmt.Printf("%-30s %-12s %-8s %s\n", "NAME", "VERSION", "ENABLED", "FILE")
			for _, m := range records {
				fmt.Printf("%-30s %-12s %-8t %s\n", m.Name, m.Version, m.Enabled, m.FileName)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search mods by name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := newPanelClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			hits, err := client.SearchMods(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(hits) == 0 {
				fmt.Println("No matches")
				return nil
			}
			for _, h := range hits {
				fmt.Printf("%-30s %s\n", h.Name, h.Description)
			}
			return nil
		},
	}
	searchCmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")

	toggle := func(use, short string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <name>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, logger, err := newPanelClient()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()

				if err := client.SetModEnabled(cmd.Context(), args[0], enabled); err != nil {
					return fmt.Errorf("failed to %s mod %q: %w", use, args[0], err)
				}
				fmt.Printf("Mod %q %sd\n", args[0], use)
				return nil
			},
		}
	}

	cmd.AddCommand(
		listCmd,
		searchCmd,
		toggle("enable", "Enable a mod (move it into the active mods directory)", true),
		toggle("disable", "Disable a mod without deleting it", false),
	)
	return cmd
}
