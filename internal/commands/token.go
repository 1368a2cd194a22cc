package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernandezvara/collabkit/internal/httpapi"
)

func newTokenCmd(load loader) *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token [flags] user-id",
		Short: "Issue a bearer token for a user (development)",
		Args:  cobra.ExactArgs(1),
	}
	flags := cmd.Flags()
	flags.StringVar(&email, "email", "", "email claim")
	flags.DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to TOKEN_TTL")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil && cfg.IsProduction() {
			return err
		}
		if ttl <= 0 {
			ttl = cfg.TokenTTL
		}

		token, err := httpapi.NewAuthenticator(cfg.JWTSecret, ttl).IssueToken(args[0], email)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	}

	return cmd
}
