package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/logging"
)

func newAuthCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign Microsoft accounts in and out",
		Long: `Manage the OAuth tokens of Microsoft accounts.

Sign in either with the device code flow ('auth login') or by visiting the
URL printed by 'auth url' and passing the returned code to 'auth save-code'.
Tokens are stored per account and refreshed automatically.`,
	}

	cmd.AddCommand(newAuthURLCmd(root))
	cmd.AddCommand(newAuthSaveCodeCmd(root))
	cmd.AddCommand(newAuthLoginCmd(root))
	cmd.AddCommand(newAuthStatusCmd(root))
	cmd.AddCommand(newAuthLogoutCmd(root))

	return cmd
}

func newAuthURLCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the sign-in URL for the authorization code flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := root.serverContext(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			authenticator, err := sc.Authenticator()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), authenticator.AuthURLForAccount(sc.Config().Account))
			return nil
		},
	}
}

func newAuthSaveCodeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save-code CODE",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := root.serverContext(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			authenticator, err := sc.Authenticator()
			if err != nil {
				return err
			}
			account := sc.Config().Account
			tok, err := authenticator.SaveTokenForAccount(cmd.Context(), account, args[0])
			if err != nil {
				return err
			}
			sc.Logger().Debug("token saved",
				logging.Account(account),
				slog.String("access_token", logging.SanitizeToken(tok.AccessToken)),
				slog.Time("expiry", tok.Expiry))
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in account %q\n", account)
			return nil
		},
	}
}

func newAuthLoginCmd(root *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the device code flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sc, err := root.serverContext(ctx)
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			authenticator, err := sc.Authenticator()
			if err != nil {
				return err
			}

			account := sc.Config().Account
			out := cmd.OutOrStdout()
			_, err = authenticator.DeviceLogin(ctx, account, func(resp *oauth2.DeviceAuthResponse) {
				fmt.Fprintf(out, "To sign in account %q, open %s and enter the code %s\n",
					account, resp.VerificationURI, resp.UserCode)
			})
			if err != nil {
				sc.Metrics().RecordAuthLogin(ctx, instrumentation.AuthMethodDevice, instrumentation.AuthResultFailure)
				return err
			}
			sc.Metrics().RecordAuthLogin(ctx, instrumentation.AuthMethodDevice, instrumentation.AuthResultSuccess)

			fmt.Fprintf(out, "Signed in account %q\n", account)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "How long to wait for the sign-in to complete")
	return cmd
}

func newAuthStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List signed-in accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := root.serverContext(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			store := sc.TokenStore()
			accounts, err := store.Accounts()
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintf(out, "No accounts signed in. Tokens are stored in %s\n", store.Dir())
				return nil
			}

			for _, account := range accounts {
				marker := " "
				if account == sc.Config().Account {
					marker = "*"
				}
				line := fmt.Sprintf("%s %s", marker, account)

				if identity, err := store.IdentityForAccount(account); err == nil {
					var who []string
					if identity.Name != "" {
						who = append(who, identity.Name)
					}
					if identity.Username != "" {
						who = append(who, "<"+identity.Username+">")
					}
					if len(who) > 0 {
						line += "\t" + strings.Join(who, " ")
					}
				}
				if tok, err := store.Load(account); err == nil && !tok.Expiry.IsZero() {
					line += "\taccess token expires " + tok.Expiry.Local().Format(time.RFC3339)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newAuthLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := root.serverContext(cmd.Context())
			if err != nil {
				return err
			}
			defer sc.Shutdown()

			account := sc.Config().Account
			if err := sc.TokenStore().Delete(account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed out account %q\n", account)
			return nil
		},
	}
}
