package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/batch"
	"positionScope/internal/config"
	"positionScope/internal/storage"
)

func runBatch(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	targets, err := batch.ParseTargets(in, cfg.ChainID)
	in.Close()
	if err != nil {
		return err
	}
	logger.Info("batch targets loaded", zap.String("input", cfg.In), zap.Int("targets", len(targets)))

	svc, err := newServices(cfg.Config, cfg.TokenMeta, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	sinks, closeSinks, err := openSinks(ctx, cfg.Out, cfg.PGDSN, cfg.SQLite, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	var failures batch.FailureSink
	if cfg.Failures != "" {
		failures = storage.NewJsonlStorage(cfg.Failures)
	}

	runner := batch.NewRunner(batch.RunConfig{
		Input:             cfg.In,
		Protocol:          cfg.Protocol,
		Wallet:            cfg.Wallet,
		Percentage:        cfg.Percentage,
		Rate:              cfg.Rate,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, svc.orchestrator, sinks, failures, logger)

	summary, err := runner.Run(ctx, targets)
	renderSummary(cmd.OutOrStdout(), summary)
	if err != nil {
		return err
	}
	logger.Info("batch finished",
		zap.Int("resolved", summary.Resolved),
		zap.Int("unsupported", summary.Unsupported),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return nil
}
