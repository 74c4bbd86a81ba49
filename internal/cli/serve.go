package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/sessionauth/internal/entrypoint"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return entrypoint.Run(loadConfig(), version)
		},
	}
}
