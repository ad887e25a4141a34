package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"positionScope/internal/model"
)

// InspectConfig holds configuration for the inspect command.
type InspectConfig struct {
	Config
	PositionID string
	ChainID    uint64
	Protocol   model.Protocol
	Wallet     string
	Percentage int
	TokenMeta  bool
	JSON       bool
	Out        string
	PGDSN      string
	SQLite     string
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return InspectConfig{}, err
	}
	v.SetDefault("chain", uint64(1))
	v.SetDefault("protocol", string(model.ProtocolV4))
	v.SetDefault("percentage", 100)

	protocol, err := model.ParseProtocol(v.GetString("protocol"))
	if err != nil {
		return InspectConfig{}, fmt.Errorf("protocol: %w", err)
	}

	cfg := InspectConfig{
		Config:     fromViper(v),
		PositionID: v.GetString("id"),
		ChainID:    v.GetUint64("chain"),
		Protocol:   protocol,
		Wallet:     v.GetString("wallet"),
		Percentage: v.GetInt("percentage"),
		TokenMeta:  v.GetBool("token-meta"),
		JSON:       v.GetBool("json"),
		Out:        v.GetString("out"),
		PGDSN:      v.GetString("pg-dsn"),
		SQLite:     v.GetString("sqlite"),
	}
	if rpc := v.GetString("rpc"); rpc != "" {
		cfg.SetRPC(cfg.ChainID, rpc)
	}
	if cfg.PositionID == "" {
		return InspectConfig{}, fmt.Errorf("position id is required")
	}
	if cfg.Percentage < 1 || cfg.Percentage > 100 {
		return InspectConfig{}, fmt.Errorf("percentage must be between 1 and 100, got %d", cfg.Percentage)
	}

	return cfg, nil
}
