package cli

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mrlokans/sessionauth/internal/auth"
	"github.com/mrlokans/sessionauth/internal/entrypoint"
)

type userAddOptions struct {
	username      string
	passwordStdin bool
}

// NewUserAddCmd creates the useradd subcommand.
func NewUserAddCmd() *cobra.Command {
	opts := &userAddOptions{}

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Register a user from the command line",
		Long: `Register a user with the same validation as POST /register.
The password is prompted for unless --password-stdin is given.`,
		Example: `  sessionauth useradd --username sue
  echo "$PASSWORD" | sessionauth useradd --username sue --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUserAdd(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "username to register (required)")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runUserAdd(cmd *cobra.Command, opts *userAddOptions) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	var (
		password string
		err      error
	)
	if opts.passwordStdin {
		password, err = readLine(cmd.InOrStdin())
	} else {
		password, err = promptPassword(cmd.ErrOrStderr())
	}
	if err != nil {
		return oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}

	ctx := cmd.Context()
	storage, err := entrypoint.OpenUsers(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth)
	if err != nil {
		return err
	}
	service, err := auth.NewService(storage.Users, hasher)
	if err != nil {
		return err
	}

	user, err := service.Register(ctx, auth.Credentials{Username: opts.username, Password: password})
	if err != nil {
		if rejection, ok := auth.AsRejection(err); ok {
			return oops.Code("USER_REJECTED").With("username", opts.username).Errorf("%s", rejection.Message)
		}
		return err
	}

	cmd.Printf("Created user %s (id %d)\n", user.Username, user.ID)
	return nil
}
