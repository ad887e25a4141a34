package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"positionScope/internal/batch"
	"positionScope/internal/model"
)

const nativeDecimals = 18

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSnapshot(w io.Writer, s *model.Snapshot, chainName string) {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")
	table.Append("Position", s.ID)
	table.Append("Protocol", string(s.Protocol))
	table.Append("Chain", fmt.Sprintf("%s (%d)", chainName, s.ChainID))
	table.Append("Status", string(s.Status))

	if key := s.PoolKey; key != nil {
		table.Append("Currency0", tokenLabel(key.Currency0, s.Token0))
		table.Append("Currency1", tokenLabel(key.Currency1, s.Token1))
		table.Append("Fee tier", formatFeeTier(key.Fee))
		table.Append("Tick spacing", strconv.Itoa(int(key.TickSpacing)))
		table.Append("Hooks", key.Hooks)
	}
	if info := s.PositionInfo; info != nil {
		table.Append("Tick range", fmt.Sprintf("[%d, %d]", info.TickLower, info.TickUpper))
		table.Append("Has subscriber", strconv.FormatBool(info.HasSubscriber))
		table.Append("Pool ID", info.PoolID)
	}
	if s.Liquidity != "" {
		table.Append("Liquidity", s.Liquidity)
	}
	table.Render()

	if s.Status == model.StatusUnsupported {
		fmt.Fprintf(w, "\n%s positions are not resolved on-chain; only identity fields are shown.\n", s.Protocol)
	}
	if s.Simulation != nil {
		fmt.Fprintln(w)
		renderSimulation(w, s.Simulation)
	}
}

func renderSimulation(w io.Writer, sim *model.SimulationResult) {
	if !sim.Success {
		fmt.Fprintf(w, "liquidity-removal preview unavailable: %s\n", sim.Error)
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Decrease preview", "Value")
	if tx := sim.Decrease; tx != nil {
		table.Append("To", tx.To)
		table.Append("From", tx.From)
		table.Append("Value", tx.Value)
		table.Append("Gas price", tx.GasPrice)
		table.Append("Gas limit", tx.GasLimit)
		table.Append("Chain ID", strconv.FormatUint(tx.ChainID, 10))
		table.Append("Calldata", abbreviate(tx.Data, 66))
	}
	if sim.GasFee != "" {
		table.Append("Gas fee", formatNative(sim.GasFee))
	}
	if sim.PoolLiquidity != "" {
		table.Append("Pool liquidity", sim.PoolLiquidity)
	}
	table.Append("Current tick", strconv.Itoa(int(sim.CurrentTick)))
	if sim.SqrtRatioX96 != "" {
		table.Append("sqrtRatioX96", sim.SqrtRatioX96)
	}
	if sim.RequestID != "" {
		table.Append("Request ID", sim.RequestID)
	}
	table.Render()
}

func renderPositionInfo(w io.Writer, info model.PositionInfo) {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")
	table.Append("Has subscriber", strconv.FormatBool(info.HasSubscriber))
	table.Append("Tick lower", strconv.Itoa(int(info.TickLower)))
	table.Append("Tick upper", strconv.Itoa(int(info.TickUpper)))
	table.Append("Pool ID", info.PoolID)
	table.Render()
}

func renderHistory(w io.Writer, records []model.SnapshotRecord) {
	table := tablewriter.NewWriter(w)
	table.Header("Resolved at", "Status", "Tick range", "Liquidity", "Preview", "Gas fee")
	for _, rec := range records {
		ticks := "-"
		if rec.TickLower != nil && rec.TickUpper != nil {
			ticks = fmt.Sprintf("[%d, %d]", *rec.TickLower, *rec.TickUpper)
		}
		preview := "-"
		if rec.SimulationSuccess != nil {
			preview = "ok"
			if !*rec.SimulationSuccess {
				preview = "failed"
			}
		}
		gasFee := "-"
		if rec.GasFee != nil {
			gasFee = formatNative(*rec.GasFee)
		}
		table.Append(
			rec.ResolvedAt.Format("2006-01-02 15:04:05"),
			rec.Status,
			ticks,
			deref(rec.Liquidity),
			preview,
			gasFee,
		)
	}
	table.Render()
}

func renderSummary(w io.Writer, summary batch.Summary) {
	table := tablewriter.NewWriter(w)
	table.Header("Resolved", "Unsupported", "Failed", "Skipped")
	table.Append(
		strconv.Itoa(summary.Resolved),
		strconv.Itoa(summary.Unsupported),
		strconv.Itoa(summary.Failed),
		strconv.Itoa(summary.Skipped),
	)
	table.Render()
}

// formatFeeTier renders a fee in hundredths of a bip as a percentage, 3000 -> 0.3%.
func formatFeeTier(fee uint32) string {
	return decimal.NewFromInt(int64(fee)).Shift(-4).String() + "%"
}

// formatNative renders a wei amount, decimal or 0x hex, in native units.
// Values that do not parse are returned unchanged.
func formatNative(wei string) string {
	amount, ok := parseAmount(wei)
	if !ok {
		return wei
	}
	return amount.Shift(-nativeDecimals).String()
}

func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromBigInt(n, 0), true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func tokenLabel(address string, meta *model.TokenMeta) string {
	if meta == nil || meta.Symbol == "" {
		return address
	}
	return fmt.Sprintf("%s (%s)", meta.Symbol, address)
}

func abbreviate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
