package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teemow/graphplanner/internal/config"
)

const maskedSecret = "********"

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(newConfigShowCmd(root))
	cmd.AddCommand(newConfigInitCmd(root))
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), root.path())
		},
	})
	return cmd
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: the file merged with defaults,
GRAPHPLANNER_* environment variables and the --account flag.
The client secret is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cfg.ClientSecret != "" {
				cfg.ClientSecret = maskedSecret
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newConfigInitCmd(root *rootOptions) *cobra.Command {
	var (
		cfg   = config.DefaultConfig()
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a new configuration file",
		Example: `  graphplanner config init --client-id 00000000-0000-0000-0000-000000000000 \
    --tenant-id contoso.onmicrosoft.com \
    --site-id "contoso.sharepoint.com,2c7d...,4f1a..."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := root.path()
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists, use --force to overwrite it", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			if cfg.ClientID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Set client_id before signing in with 'graphplanner auth login'.\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.TenantID, "tenant-id", cfg.TenantID, "Azure AD tenant")
	cmd.Flags().StringVar(&cfg.ClientID, "client-id", "", "Application (client) ID of the app registration")
	cmd.Flags().StringVar(&cfg.RedirectURL, "redirect-url", "", "Redirect URI registered for the app")
	cmd.Flags().StringVar(&cfg.SiteID, "site-id", "", "SharePoint site holding the task list")
	cmd.Flags().StringVar(&cfg.ListID, "list-id", cfg.ListID, "Name or GUID of the task list")
	cmd.Flags().StringVar(&cfg.TimeZone, "time-zone", "", "Time zone for calendar weeks (default: mailbox time zone)")
	cmd.Flags().StringVar(&cfg.WeekStart, "week-start", cfg.WeekStart, "First day of the week: sunday or monday")
	cmd.Flags().StringVar(&cfg.Account, "default-account", cfg.Account, "Account used when --account is not given")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
