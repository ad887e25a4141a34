package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionScope/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "positions",
		Short:        "Inspect Uniswap v4 liquidity positions",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	inspectCmd := &cobra.Command{
		Use:   "inspect [position-id]",
		Short: "Resolve one position and optionally preview a liquidity decrease",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("id", "", "position token id (decimal or 0x hex)")
	inspectCmd.Flags().String("wallet", "", "wallet address; enables the decrease preview")
	inspectCmd.Flags().Int("percentage", 100, "liquidity percentage to decrease in the preview (1-100)")
	inspectCmd.Flags().Bool("json", false, "print the snapshot as JSON")
	inspectCmd.Flags().String("out", "", "append the snapshot to a JSONL file")
	addResolveFlags(inspectCmd.Flags())
	addSinkFlags(inspectCmd.Flags())

	root.AddCommand(inspectCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve every position listed in a file",
		RunE:  runBatch,
	}

	batchCmd.Flags().String("in", "", "input file, one position per line (<id> or <chain>:<id>)")
	batchCmd.Flags().String("out", "./data/positions.jsonl", "output snapshots JSONL")
	batchCmd.Flags().String("failures", "./data/position_failures.jsonl", "output failures JSONL")
	batchCmd.Flags().String("wallet", "", "wallet address; enables decrease previews")
	batchCmd.Flags().Int("percentage", 100, "liquidity percentage to decrease in previews (1-100)")
	batchCmd.Flags().Float64("rate", 5, "maximum positions per second, 0 means unlimited")
	batchCmd.Flags().Int("max-retries", 5, "maximum retry attempts on transport errors")
	batchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	batchCmd.Flags().String("checkpoint", "./data/batch_checkpoint.json", "checkpoint file path")
	batchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	addResolveFlags(batchCmd.Flags())
	addSinkFlags(batchCmd.Flags())

	root.AddCommand(batchCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode-info <packed-info>",
		Short: "Decode a packed PositionInfo value offline",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecodeInfo,
	}

	decodeCmd.Flags().Bool("json", false, "print the decoded fields as JSON")

	root.AddCommand(decodeCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored snapshots of a position from a SQLite history file",
		RunE:  runHistory,
	}

	historyCmd.Flags().String("sqlite", "./data/positions.db", "SQLite history file")
	historyCmd.Flags().String("id", "", "position token id")
	historyCmd.Flags().Uint64("chain", 1, "chain id")
	historyCmd.Flags().Int("limit", 20, "maximum rows")

	root.AddCommand(historyCmd)

	chainsCmd := &cobra.Command{
		Use:   "chains",
		Short: "List supported chains and their configuration status",
		RunE:  runChains,
	}

	chainsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(chainsCmd)

	return root
}

func addResolveFlags(flags *pflag.FlagSet) {
	flags.Uint64("chain", 1, "chain id (1 mainnet, 8453 base, 130 unichain)")
	flags.String("protocol", "v4", "protocol version (v3, v4)")
	flags.String("rpc", "", "RPC URL for the selected chain, overrides configuration")
	flags.Bool("token-meta", false, "look up ERC20 symbol/decimals for the pool currencies")
	flags.String("simulation-url", "", "simulation service base URL")
	flags.String("api-key", "", "simulation service API key")
	flags.Duration("timeout", 15*time.Second, "per-position request timeout")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addSinkFlags(flags *pflag.FlagSet) {
	flags.String("pg-dsn", "", "Postgres DSN; also store snapshots in position_snapshots")
	flags.String("sqlite", "", "SQLite file; also store snapshots as local history")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
