package main

import (
	"context"
	"errors"

	"skill-radar/internal/app"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			if c.DB == nil {
				return errors.New("database.host is not configured")
			}
			if c.Config.Database.MigrateOnStart {
				// NewContainer already applied them.
				return nil
			}
			return c.Migrate(ctx)
		})
	},
}
