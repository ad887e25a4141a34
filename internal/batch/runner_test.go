package batch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"positionScope/internal/chain"
	"positionScope/internal/model"
	"positionScope/internal/position"
)

type scriptedSource struct {
	mu       sync.Mutex
	attempts map[string]int
	// transient is the number of transport failures before success, per id.
	transient map[string]int
	permanent map[string]error
}

func (s *scriptedSource) GetPositionWithSimulation(_ context.Context, req position.Request) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempts == nil {
		s.attempts = make(map[string]int)
	}
	s.attempts[req.PositionID]++
	if err := s.permanent[req.PositionID]; err != nil {
		return nil, err
	}
	if s.attempts[req.PositionID] <= s.transient[req.PositionID] {
		return nil, &position.ResolveError{PositionID: req.PositionID, ChainID: req.ChainID, Err: &chain.TransportError{ChainID: req.ChainID, Method: "eth_call", StatusCode: 429, Reason: "Too Many Requests"}}
	}
	status := model.StatusResolved
	if req.Protocol == model.ProtocolV3 {
		status = model.StatusUnsupported
	}
	return &model.Snapshot{ID: req.PositionID, Protocol: req.Protocol, ChainID: req.ChainID, Status: status, Liquidity: "1"}, nil
}

type memorySink struct {
	snapshots []model.Snapshot
	failures  []model.ResolveFailure
	flushes   int
}

func (m *memorySink) PutSnapshots(_ context.Context, snapshots []model.Snapshot) error {
	m.flushes++
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

func (m *memorySink) PutFailures(failures []model.ResolveFailure) error {
	m.failures = append(m.failures, failures...)
	return nil
}

func testConfig(t *testing.T) RunConfig {
	return RunConfig{
		Input:             "ids.txt",
		Protocol:          model.ProtocolV4,
		MaxRetries:        3,
		RetryBackoff:      time.Millisecond,
		FlushSize:         2,
		CheckpointPath:    filepath.Join(t.TempDir(), "checkpoint.json"),
		CheckpointEnabled: true,
	}
}

func targets(ids ...string) []Target {
	out := make([]Target, len(ids))
	for i, id := range ids {
		out[i] = Target{Line: i + 1, PositionID: id, ChainID: 1}
	}
	return out
}

func TestRunnerRetriesTransportErrors(t *testing.T) {
	source := &scriptedSource{
		transient: map[string]int{"2": 2},
		permanent: map[string]error{"3": &position.ResolveError{PositionID: "3", ChainID: 1, Err: errors.New("abi decode failed")}},
	}
	sink := &memorySink{}
	summary, err := NewRunner(testConfig(t), source, sink, sink, nil).Run(context.Background(), targets("1", "2", "3"))
	require.NoError(t, err)

	assert.Equal(t, Summary{Resolved: 2, Failed: 1}, summary)
	assert.Equal(t, 3, source.attempts["2"])
	assert.Equal(t, 1, source.attempts["3"], "non-transport errors are not retried")
	require.Len(t, sink.failures, 1)
	assert.Equal(t, 3, sink.failures[0].Line)
	assert.Len(t, sink.snapshots, 2)
	assert.Equal(t, 2, sink.flushes)
}

func TestRunnerGivesUpAfterMaxRetries(t *testing.T) {
	source := &scriptedSource{transient: map[string]int{"1": 100}}
	sink := &memorySink{}
	cfg := testConfig(t)
	cfg.MaxRetries = 2

	summary, err := NewRunner(cfg, source, sink, sink, nil).Run(context.Background(), targets("1"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, source.attempts["1"])
	require.Len(t, sink.failures, 1)
	assert.Contains(t, sink.failures[0].Error, "429")
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	first := &memorySink{}
	_, err := NewRunner(cfg, &scriptedSource{}, first, nil, nil).Run(context.Background(), targets("1", "2"))
	require.NoError(t, err)

	source := &scriptedSource{}
	second := &memorySink{}
	summary, err := NewRunner(cfg, source, second, nil, nil).Run(context.Background(), targets("1", "2", "3"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Resolved: 1, Skipped: 2}, summary)
	require.Len(t, second.snapshots, 1)
	assert.Equal(t, "3", second.snapshots[0].ID)
	assert.Zero(t, source.attempts["1"])
}

func TestRunnerCountsUnsupported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Protocol = model.ProtocolV3
	summary, err := NewRunner(cfg, &scriptedSource{}, &memorySink{}, nil, nil).Run(context.Background(), targets("1", "2"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Unsupported: 2}, summary)
}

func TestRunnerStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &memorySink{}
	_, err := NewRunner(testConfig(t), &scriptedSource{}, sink, nil, nil).Run(ctx, targets("1"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.snapshots)
}
