package main

import (
	"context"
	"fmt"

	"skill-radar/internal/app"
	"skill-radar/internal/database/seeder"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo subjects that can be synced without code-host credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			n, err := seeder.Runner{Seeders: seeder.Defaults()}.Run(ctx, c.Subjects)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d subjects\n", n)
			return nil
		})
	},
}
