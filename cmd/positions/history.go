package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"positionScope/internal/position"
	"positionScope/internal/storage/sqlite"
)

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("sqlite")
	id, _ := cmd.Flags().GetString("id")
	chainID, _ := cmd.Flags().GetUint64("chain")
	limit, _ := cmd.Flags().GetInt("limit")

	tokenID, err := position.ParsePositionID(id)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.History(ctx, chainID, tokenID.String(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no snapshots of position %s on chain %d\n", tokenID, chainID)
		return nil
	}
	renderHistory(cmd.OutOrStdout(), records)
	return nil
}
