package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"skill-radar/internal/app"
	"skill-radar/internal/config"
	"skill-radar/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "syncer"

var (
	debug   bool
	logJSON bool

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "syncer runs skill-radar sync jobs and maintenance tasks from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&logJSON, "json", "j", false, "json format for logging")

	rootCmd.AddCommand(batchCmd, runCmd, migrateCmd, tokenCmd, seedCmd)
}

// env is what every subcommand starts from. Configuration comes from SKILLRADAR_CONFIG
// and SKILLRADAR_* variables, the same as the server.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func loadEnv() (env, error) {
	cfg, err := config.Load()
	if err != nil {
		return env{}, err
	}

	level := cfg.App.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(logJSON || cfg.App.LogJSON, level)
	if err != nil {
		return env{}, fmt.Errorf("init logger: %w", err)
	}
	return env{cfg: cfg, log: log.Named(appName)}, nil
}

// withContainer loads configuration, builds the container, runs fn and releases
// everything afterwards.
func withContainer(ctx context.Context, fn func(ctx context.Context, c *app.Container) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	c, err := app.NewContainer(ctx, *e.cfg, e.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			e.log.Warn("close container", zap.Error(err))
		}
	}()

	return fn(ctx, c)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
