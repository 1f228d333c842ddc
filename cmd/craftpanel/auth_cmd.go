package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/craftpanel/craftpanel-go/internal/prompt"
	"github.com/craftpanel/craftpanel-go/internal/secret"
)

func getAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored panel credentials",
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store the panel address and API key in the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			store := secret.NewStore()
			if !store.IsAvailable() {
				return fmt.Errorf("no OS keyring available; use --api-key or %s instead", secret.EnvAPIKey)
			}

			p := prompt.NewConsolePrompter()
			url, err := p.PromptStringWithDefault("Panel address", defaultServerURL)
			if err != nil {
				return err
			}
			key, err := p.PromptSecret("API key: ")
			if err != nil {
				return err
			}
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("API key must not be empty")
			}

			if err := store.Save(url, key); err != nil {
				return err
			}
			fmt.Println("Credentials stored")
			return nil
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials from the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := secret.NewStore().Clear(); err != nil {
				return err
			}
			fmt.Println("Credentials removed")
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored panel address and key source",
		RunE: func(_ *cobra.Command, _ []string) error {
			store := secret.NewStore()
			fmt.Printf("Panel address: %s\n", store.ServerURL(defaultServerURL))

			key, err := store.APIKey()
			if err != nil {
				fmt.Println("API key:       (not configured)")
				return nil
			}
			fmt.Printf("API key:       %s\n", maskKey(key))
			return nil
		},
	}

	cmd.AddCommand(loginCmd, logoutCmd, showCmd)
	return cmd
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
