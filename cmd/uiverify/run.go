package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hairizuanbinnoorazman/ui-verify/evidence"
	"github.com/hairizuanbinnoorazman/ui-verify/logger"
	"github.com/hairizuanbinnoorazman/ui-verify/storage"
	"github.com/hairizuanbinnoorazman/ui-verify/verification"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one verification and write its evidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flagConfig)
			if err != nil {
				return setupError(err)
			}

			log := logger.NewLogrusLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runVerification(ctx, cmd, cfg, log)
		},
	}
}

func runVerification(ctx context.Context, cmd *cobra.Command, cfg *verification.Config, log logger.Logger) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return setupError(err)
	}

	store, err := storage.NewBlobStorage(ctx, cfg.BlobStorageConfig())
	if err != nil {
		return setupError(err)
	}

	recorder := evidence.NewRecorder(store, cfg.RecorderOptions(), log)
	runner := verification.NewRunner(*cfg, engine, recorder, log)

	run, runErr := runner.Run(ctx)
	if flagJSON {
		printJSON(cmd.OutOrStdout(), run)
	} else {
		printRunSummary(cmd.OutOrStdout(), run)
	}
	return runErr
}
