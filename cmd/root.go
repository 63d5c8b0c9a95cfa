package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/graphplanner/internal/config"
	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/logging"
	"github.com/teemow/graphplanner/internal/server"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and the MCP server
func SetVersion(v string) {
	version = v
}

// rootOptions are the flags shared by all commands
type rootOptions struct {
	configPath string
	account    string
	debug      bool
	logFormat  string
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "graphplanner",
		Short: "Weekly calendar and SharePoint task list for Microsoft 365",
		Long: `graphplanner signs in to a Microsoft account and works with two
Microsoft Graph resources: the signed-in user's Outlook calendar and a
SharePoint list used as a to-do list.

It can run as:
  - A command-line tool
  - An MCP (Model Context Protocol) server for AI assistants`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := logging.Setup(logging.Options{
				Debug:  opts.debug,
				Format: opts.logFormat,
				Output: cmd.ErrOrStderr(),
			})
			return err
		},
	}
	cmd.SetVersionTemplate(`{{printf "graphplanner version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", fmt.Sprintf("Config file (default: %s)", config.DefaultPath()))
	cmd.PersistentFlags().StringVar(&opts.account, "account", "", "Account name to use (default: the configured account)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: text or json")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAuthCmd(opts))
	cmd.AddCommand(newMeCmd(opts))
	cmd.AddCommand(newCalendarCmd(opts))
	cmd.AddCommand(newTasksCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", graph.DisplayMessage(err))
		os.Exit(1)
	}
}

func (o *rootOptions) path() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file and applies the --account flag
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.path())
	if err != nil {
		return nil, err
	}
	if o.account != "" {
		cfg.Account = o.account
	}
	return cfg, nil
}

// serverContext builds the composition root for one command run
func (o *rootOptions) serverContext(ctx context.Context) (*server.ServerContext, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return server.NewServerContext(ctx, cfg, server.WithLogger(slog.Default()))
}

// service returns the data-access service of the selected account. The
// caller shuts the returned context down.
func (o *rootOptions) service(ctx context.Context) (*server.ServerContext, *graph.Service, error) {
	sc, err := o.serverContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	account := sc.Config().Account
	if !sc.HasTokenForAccount(account) {
		_ = sc.Shutdown()
		return nil, nil, errors.New(sc.AuthenticationHelp(account))
	}

	svc, err := sc.Service()
	if err != nil {
		_ = sc.Shutdown()
		return nil, nil, err
	}
	return sc, svc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// taskService is service for commands on the task list, which also needs a
// configured site.
func (o *rootOptions) taskService(ctx context.Context) (*server.ServerContext, *graph.Service, error) {
	sc, svc, err := o.service(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := sc.Config().ValidateForTasks(); err != nil {
		_ = sc.Shutdown()
		return nil, nil, err
	}
	return sc, svc, nil
}
