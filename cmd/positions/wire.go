package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/dex"
	"positionScope/internal/position"
	"positionScope/internal/simulation"
	"positionScope/internal/storage"
	"positionScope/internal/storage/postgres"
	"positionScope/internal/storage/sqlite"
)

// services is the resolution pipeline shared by inspect and batch.
type services struct {
	registry     *chain.Registry
	client       *chain.Client
	orchestrator *position.Orchestrator
}

func newServices(cfg config.Config, tokenMeta bool, logger *zap.Logger) (*services, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	client := chain.NewClient(registry, nil, logger.Named("rpc"))
	resolver := position.NewResolver(registry, client, logger.Named("resolver"))
	gateway := simulation.NewGateway(cfg.Simulation, nil, logger.Named("simulation"))

	opts := []position.Option{position.WithTimeout(cfg.Timeout)}
	if tokenMeta {
		natives := make(map[uint64]string)
		for _, id := range registry.IDs() {
			if entry, ok := registry.Lookup(id); ok {
				natives[id] = entry.NativeSymbol
			}
		}
		opts = append(opts, position.WithTokenMeta(dex.NewTokenMetaFetcher(client, natives, logger.Named("tokens"))))
	}

	return &services{
		registry:     registry,
		client:       client,
		orchestrator: position.NewOrchestrator(resolver, gateway, logger, opts...),
	}, nil
}

func (s *services) Close() {
	s.client.Close()
}

func (s *services) chainName(chainID uint64) string {
	if entry, ok := s.registry.Lookup(chainID); ok {
		return entry.Name
	}
	return fmt.Sprintf("chain %d", chainID)
}

// openSinks opens every configured snapshot sink. The returned close func is never nil.
func openSinks(ctx context.Context, jsonlPath, pgDSN, sqlitePath string, logger *zap.Logger) (storage.MultiSink, func(), error) {
	var (
		sinks   storage.MultiSink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if jsonlPath != "" {
		sinks = append(sinks, storage.NewJsonlStorage(jsonlPath))
	}
	if pgDSN != "" {
		store, err := postgres.NewStore(ctx, pgDSN)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, store)
	}
	if sqlitePath != "" {
		store, err := sqlite.Open(ctx, sqlitePath)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close sqlite", zap.Error(err))
			}
		})
		sinks = append(sinks, store)
	}
	return sinks, closeAll, nil
}
