package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMeCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, svc, err := root.service(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			user, err := svc.GetCurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), user)
			}

			tz := "UTC"
			if user.MailboxSettings != nil && user.MailboxSettings.TimeZone != "" {
				tz = user.MailboxSettings.TimeZone
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:      %s\n", user.DisplayName)
			fmt.Fprintf(out, "Email:     %s\n", user.Email())
			fmt.Fprintf(out, "Time zone: %s\n", tz)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the profile as JSON")
	return cmd
}
