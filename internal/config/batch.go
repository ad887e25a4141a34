package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"positionScope/internal/model"
)

// BatchConfig holds configuration for the batch command.
type BatchConfig struct {
	Config
	In                string
	Out               string
	Failures          string
	PGDSN             string
	SQLite            string
	ChainID           uint64
	Protocol          model.Protocol
	Wallet            string
	Percentage        int
	TokenMeta         bool
	Rate              float64
	MaxRetries        int
	RetryBackoff      time.Duration
	Checkpoint        string
	CheckpointEnabled bool
}

// LoadBatch merges config file, environment variables, and flags into BatchConfig.
func LoadBatch(cfgFile string, flags *pflag.FlagSet) (BatchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return BatchConfig{}, err
	}
	v.SetDefault("chain", uint64(1))
	v.SetDefault("protocol", string(model.ProtocolV4))
	v.SetDefault("percentage", 100)
	v.SetDefault("out", "./data/positions.jsonl")
	v.SetDefault("failures", "./data/position_failures.jsonl")
	v.SetDefault("rate", 5.0)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("checkpoint", "./data/batch_checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)

	protocol, err := model.ParseProtocol(v.GetString("protocol"))
	if err != nil {
		return BatchConfig{}, fmt.Errorf("protocol: %w", err)
	}

	cfg := BatchConfig{
		Config:            fromViper(v),
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		Failures:          v.GetString("failures"),
		PGDSN:             v.GetString("pg-dsn"),
		SQLite:            v.GetString("sqlite"),
		ChainID:           v.GetUint64("chain"),
		Protocol:          protocol,
		Wallet:            v.GetString("wallet"),
		Percentage:        v.GetInt("percentage"),
		TokenMeta:         v.GetBool("token-meta"),
		Rate:              v.GetFloat64("rate"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
	}
	if rpc := v.GetString("rpc"); rpc != "" {
		cfg.SetRPC(cfg.ChainID, rpc)
	}
	if cfg.In == "" {
		return BatchConfig{}, fmt.Errorf("input file is required")
	}
	if cfg.Rate < 0 {
		return BatchConfig{}, fmt.Errorf("rate must not be negative")
	}
	if cfg.Percentage < 1 || cfg.Percentage > 100 {
		return BatchConfig{}, fmt.Errorf("percentage must be between 1 and 100, got %d", cfg.Percentage)
	}

	return cfg, nil
}
