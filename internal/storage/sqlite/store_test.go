package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"positionScope/internal/model"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "db", "positions.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return base }
	resolved := model.Snapshot{
		RequestID:    "req-1",
		ID:           "12345",
		Protocol:     model.ProtocolV4,
		ChainID:      8453,
		Status:       model.StatusResolved,
		PoolKey:      &model.PoolKey{Currency0: "0x0000000000000000000000000000000000000000", Currency1: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Fee: 500, TickSpacing: 10},
		PositionInfo: &model.PositionInfo{HasSubscriber: true, TickLower: -200, TickUpper: 200, PoolID: "0xab"},
		Liquidity:    "500000",
		Simulation:   &model.SimulationResult{Success: false, Error: "simulation service error: 500 Internal Server Error"},
	}
	require.NoError(t, store.PutSnapshots(ctx, []model.Snapshot{resolved}))

	store.now = func() time.Time { return base.Add(time.Minute) }
	later := resolved
	later.RequestID = "req-2"
	later.Liquidity = "0"
	later.Simulation = nil
	require.NoError(t, store.PutSnapshots(ctx, []model.Snapshot{later, resolved}))

	history, err := store.History(ctx, 8453, "12345", 0)
	require.NoError(t, err)
	require.Len(t, history, 2, "duplicate request ids are ignored")

	assert.Equal(t, "req-2", history[0].RequestID)
	require.NotNil(t, history[0].Liquidity)
	assert.Equal(t, "0", *history[0].Liquidity)
	assert.Nil(t, history[0].SimulationSuccess)
	assert.True(t, history[0].ResolvedAt.Equal(base.Add(time.Minute)))

	first := history[1]
	assert.Equal(t, "req-1", first.RequestID)
	require.NotNil(t, first.Fee)
	assert.Equal(t, uint32(500), *first.Fee)
	require.NotNil(t, first.TickLower)
	assert.Equal(t, int32(-200), *first.TickLower)
	require.NotNil(t, first.HasSubscriber)
	assert.True(t, *first.HasSubscriber)
	require.NotNil(t, first.SimulationSuccess)
	assert.False(t, *first.SimulationSuccess)
	require.NotNil(t, first.SimulationError)
	assert.Contains(t, *first.SimulationError, "500")
}

func TestStoreUnsupportedSnapshot(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "positions.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutSnapshots(ctx, []model.Snapshot{{RequestID: "r", ID: "7", Protocol: model.ProtocolV3, ChainID: 1, Status: model.StatusUnsupported}}))
	history, err := store.History(ctx, 1, "7", 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "unsupported", history[0].Status)
	assert.Nil(t, history[0].PoolID)
	assert.Nil(t, history[0].Liquidity)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
