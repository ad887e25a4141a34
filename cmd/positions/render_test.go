package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"positionScope/internal/batch"
	"positionScope/internal/model"
)

func TestFormatFeeTier(t *testing.T) {
	assert.Equal(t, "0.3%", formatFeeTier(3000))
	assert.Equal(t, "0.05%", formatFeeTier(500))
	assert.Equal(t, "0.01%", formatFeeTier(100))
	assert.Equal(t, "1%", formatFeeTier(10000))
	assert.Equal(t, "0%", formatFeeTier(0))
}

func TestFormatNative(t *testing.T) {
	assert.Equal(t, "0.0015", formatNative("1500000000000000"))
	assert.Equal(t, "0.001", formatNative("0x38d7ea4c68000"))
	assert.Equal(t, "2", formatNative("2000000000000000000"))
	assert.Equal(t, "n/a", formatNative("n/a"))
	assert.Equal(t, "0xzz", formatNative("0xzz"))
}

func TestRenderSnapshotResolved(t *testing.T) {
	s := &model.Snapshot{
		ID:       "12345",
		Protocol: model.ProtocolV4,
		ChainID:  8453,
		Status:   model.StatusResolved,
		PoolKey: &model.PoolKey{
			Currency0:   "0x0000000000000000000000000000000000000000",
			Currency1:   "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			Fee:         3000,
			TickSpacing: 60,
			Hooks:       "0x0000000000000000000000000000000000000000",
		},
		PositionInfo: &model.PositionInfo{TickLower: -600, TickUpper: 600},
		Liquidity:    "987654321",
		Token1:       &model.TokenMeta{Symbol: "USDC", Decimals: 6},
	}

	var buf bytes.Buffer
	renderSnapshot(&buf, s, "base")
	out := buf.String()

	assert.Contains(t, out, "12345")
	assert.Contains(t, out, "base (8453)")
	assert.Contains(t, out, "0.3%")
	assert.Contains(t, out, "[-600, 600]")
	assert.Contains(t, out, "987654321")
	assert.Contains(t, out, "USDC")
	assert.NotContains(t, out, "preview")
}

func TestRenderSnapshotUnsupported(t *testing.T) {
	s := &model.Snapshot{ID: "7", Protocol: model.ProtocolV3, ChainID: 1, Status: model.StatusUnsupported}

	var buf bytes.Buffer
	renderSnapshot(&buf, s, "mainnet")

	assert.Contains(t, buf.String(), "v3 positions are not resolved on-chain")
}

func TestRenderSimulationFailure(t *testing.T) {
	sim := model.FailedSimulation(model.FailureHTTPStatus, "simulation service error: 500 Internal Server Error")

	var buf bytes.Buffer
	renderSimulation(&buf, &sim)

	assert.Equal(t, "liquidity-removal preview unavailable: simulation service error: 500 Internal Server Error\n", buf.String())
}

func TestRenderSimulationSuccess(t *testing.T) {
	sim := &model.SimulationResult{
		Success: true,
		Decrease: &model.DecreaseTransaction{
			To:       "0xbD216513d74C8cf14cf4747E6AaA6420FF64ee9e",
			From:     "0x1111111111111111111111111111111111111111",
			Data:     "0xdd46508f",
			Value:    "0x00",
			GasPrice: "0x3b9aca00",
			GasLimit: "0x493e0",
			ChainID:  1,
		},
		GasFee:      "300000000000000",
		CurrentTick: -200311,
	}

	var buf bytes.Buffer
	renderSimulation(&buf, sim)
	out := buf.String()

	assert.Contains(t, out, "0.0003")
	assert.Contains(t, out, "-200311")
	assert.Contains(t, out, "0xdd46508f")
}

func TestRenderHistory(t *testing.T) {
	lower, upper := int32(-10), int32(20)
	liquidity := "42"
	ok := false
	records := []model.SnapshotRecord{{
		PositionID:        "7",
		Status:            "resolved",
		TickLower:         &lower,
		TickUpper:         &upper,
		Liquidity:         &liquidity,
		SimulationSuccess: &ok,
		ResolvedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	renderHistory(&buf, records)
	out := buf.String()

	assert.Contains(t, out, "2026-03-01 12:00:00")
	assert.Contains(t, out, "[-10, 20]")
	assert.Contains(t, out, "failed")
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, batch.Summary{Resolved: 3, Unsupported: 1, Failed: 2, Skipped: 4})
	out := buf.String()

	for _, want := range []string{"3", "1", "2", "4"} {
		assert.Contains(t, out, want)
	}
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "0xabcd", abbreviate("0xabcd", 10))
	assert.Equal(t, "0xab...", abbreviate("0xabcdef", 4))
}
