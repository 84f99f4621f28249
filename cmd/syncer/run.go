package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"skill-radar/internal/app"
	"skill-radar/internal/delivery/http/dto"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runRole string

var runCmd = &cobra.Command{
	Use:   "run <subject-id>",
	Short: "Run a full sync for one subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subject id %q: %w", args[0], err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withContainer(ctx, func(ctx context.Context, c *app.Container) error {
			res, err := c.Pipeline.RunFullSync(ctx, id, runRole)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.NewFullSyncResponse(res))
		})
	},
}

func init() {
	runCmd.Flags().StringVar(&runRole, "role", "", "target role for insights (default: sync.default_role)")
}
