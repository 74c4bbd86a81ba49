package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mrlokans/sessionauth/internal/audit"
	"github.com/mrlokans/sessionauth/internal/entities"
	"github.com/mrlokans/sessionauth/internal/entrypoint"
)

type auditOptions struct {
	username string
	limit    int
}

// NewAuditCmd creates the audit subcommand.
func NewAuditCmd() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent register, login and logout attempts",
		Long: `Print the most recent audit events, newest first.
The audit trail is kept in the sqlite database when AUDIT_ENABLED is set.`,
		Example: `  sessionauth audit
  sessionauth audit --username sue --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "only show events for this username")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "maximum number of events")

	return cmd
}

func runAudit(cmd *cobra.Command, opts *auditOptions) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	ctx := cmd.Context()
	storage, err := entrypoint.OpenUsers(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	if storage.Audit == nil {
		return oops.Code("AUDIT_UNAVAILABLE").
			With("driver", cfg.Database.Driver).
			Errorf("audit trail is disabled or not supported by the %s driver", cfg.Database.Driver)
	}

	events, err := audit.NewService(storage.Audit, nil).GetEvents(ctx, opts.username, opts.limit)
	if err != nil {
		return oops.Code("AUDIT_READ_FAILED").Wrap(err)
	}
	if len(events) == 0 {
		cmd.Println("No audit events")
		return nil
	}

	printEvents(cmd, events)
	return nil
}

func printEvents(cmd *cobra.Command, events []entities.AuditEvent) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tACTION\tSTATUS\tUSERNAME\tIP\tREASON")
	for _, e := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Action, e.Status, e.Username, e.IPAddress, e.Reason)
	}
	_ = w.Flush()
}
