package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/config"
	"positionScope/internal/model"
	"positionScope/internal/position"
)

func runInspect(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && !cmd.Flags().Changed("id") {
		if err := cmd.Flags().Set("id", args[0]); err != nil {
			return err
		}
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInspect(cfgFile, cmd.Flags())
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

	snapshot, err := svc.orchestrator.GetPositionWithSimulation(ctx, position.Request{
		PositionID:    cfg.PositionID,
		Protocol:      cfg.Protocol,
		ChainID:       cfg.ChainID,
		WalletAddress: cfg.Wallet,
		Percentage:    cfg.Percentage,
	})
	if err != nil {
		return fmt.Errorf("position data unavailable: %w", err)
	}

	if len(sinks) > 0 {
		if err := sinks.PutSnapshots(ctx, []model.Snapshot{*snapshot}); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if cfg.JSON {
		return writeJSON(out, snapshot)
	}
	renderSnapshot(out, snapshot, svc.chainName(snapshot.ChainID))
	logger.Debug("inspect done", zap.String("request_id", snapshot.RequestID))
	return nil
}
