// Package cli implements the sessionauth command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/sessionauth/internal/config"
)

// loadConfig is replaced in tests.
var loadConfig = config.NewConfig

// NewRootCmd creates the root command. Running it without a subcommand
// starts the HTTP server.
func NewRootCmd(version string) *cobra.Command {
	serve := NewServeCmd(version)

	cmd := &cobra.Command{
		Use:   "sessionauth",
		Short: "Session-based username/password authentication service",
		Long: `sessionauth serves /register, /login and /logout over HTTP and keeps
the authenticated user in a server-side session.

Configuration is read from the environment and from .env files.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserAddCmd())
	cmd.AddCommand(NewAuditCmd())

	return cmd
}
