package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"positionScope/internal/chain"
	"positionScope/internal/config"
)

func runChains(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("ID", "Name", "Native", "Position manager", "RPC")
	for _, id := range registry.IDs() {
		entry, _ := registry.Lookup(id)
		table.Append(
			strconv.FormatUint(entry.ID, 10),
			entry.Name,
			entry.NativeSymbol,
			entry.PositionManager.Hex(),
			rpcStatus(registry, id),
		)
	}
	table.Render()
	return nil
}

func rpcStatus(registry *chain.Registry, chainID uint64) string {
	if _, err := registry.Resolve(chainID); err != nil {
		return "not configured"
	}
	return "configured"
}
