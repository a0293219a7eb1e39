package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tracker/internal/auth"
	"tracker/internal/config"
	"tracker/internal/storage/sqlite"
)

// tokenCmd issues a bearer token for a user and makes sure the user row
// exists. It stands in for an external sign-in flow during development.
func tokenCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		user   string
		ttl    time.Duration
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user",
		Example: `  tracker token --user alice
  tracker token --user alice --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("ttl") {
				cfg.TokenTTL = ttl
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return issueToken(cmd.Context(), cmd.OutOrStdout(), cfg, user)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "user id to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime (TRACKER_TOKEN_TTL)")
	cmd.Flags().StringVar(&dbPath, "db", "data/tracker.db", "path to sqlite database file (TRACKER_DB_PATH)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func issueToken(ctx context.Context, out io.Writer, cfg config.Config, user string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return fmt.Errorf("user must not be empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := sqlite.Open(cfg.DBPath, newLogger(io.Discard, cfg))
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer store.Close()

	if _, err := store.EnsureUser(ctx, user); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	authn, err := auth.New(cfg.JWTSecret)
	if err != nil {
		return err
	}
	token, err := authn.Issue(user, cfg.TokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
