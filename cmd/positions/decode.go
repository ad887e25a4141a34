package main

import (
	"github.com/spf13/cobra"

	"positionScope/internal/dex"
)

func runDecodeInfo(cmd *cobra.Command, args []string) error {
	packed, err := dex.ParsePackedInfo(args[0])
	if err != nil {
		return err
	}
	info := dex.DecodePositionInfo(packed)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), info)
	}
	renderPositionInfo(cmd.OutOrStdout(), info)
	return nil
}
