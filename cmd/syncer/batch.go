package main

import (
	"context"
	"os/signal"
	"syscall"

	"skill-radar/internal/app"
	"skill-radar/internal/delivery/http/dto"
	"skill-radar/internal/pipeline"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a full sync for every eligible subject",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withContainer(ctx, func(ctx context.Context, c *app.Container) error {
			report, err := c.Pipeline.RunBatch(ctx, pipeline.TriggerCLI)
			if perr := printJSON(cmd, dto.NewBatchResponse(report)); perr != nil {
				return perr
			}
			return err
		})
	},
}
