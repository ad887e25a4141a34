package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

// DefaultPercentage is the share of liquidity simulated when none is given.
const DefaultPercentage = 100

// ErrInvalidPercentage is returned for a decrease percentage outside [1, 100].
var ErrInvalidPercentage = errors.New("percentage must be between 1 and 100")

// Simulator previews a liquidity decrease. It reports failures inside the result.
type Simulator interface {
	Simulate(ctx context.Context, snapshot *model.Snapshot, walletAddress string, percentage int) model.SimulationResult
}

// TokenEnricher looks up metadata for a pool's currencies.
type TokenEnricher interface {
	PoolTokens(ctx context.Context, chainID uint64, key model.PoolKey) (*model.TokenMeta, *model.TokenMeta)
}

// Request is one position lookup. WalletAddress enables the decrease preview;
// a zero Percentage means DefaultPercentage.
type Request struct {
	PositionID    string
	Protocol      model.Protocol
	ChainID       uint64
	WalletAddress string
	Percentage    int
}

// Orchestrator resolves a position and attaches optional enrichments.
type Orchestrator struct {
	resolver  *Resolver
	simulator Simulator
	tokens    TokenEnricher
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTokenMeta enables token metadata enrichment of resolved snapshots.
func WithTokenMeta(tokens TokenEnricher) Option {
	return func(o *Orchestrator) { o.tokens = tokens }
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// NewOrchestrator creates an orchestrator. simulator may be nil, which disables previews.
func NewOrchestrator(resolver *Resolver, simulator Simulator, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{resolver: resolver, simulator: simulator, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetPositionWithSimulation resolves a position and, when a wallet is given for a
// fully resolved v4 position, attaches the decrease preview. A failed preview is
// carried on the snapshot and never fails the call.
func (o *Orchestrator) GetPositionWithSimulation(ctx context.Context, req Request) (*model.Snapshot, error) {
	percentage := req.Percentage
	if percentage == 0 {
		percentage = DefaultPercentage
	}
	if percentage < 1 || percentage > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPercentage, percentage)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	log := o.logger.With(
		zap.String("request_id", requestID),
		zap.String("position_id", req.PositionID),
		zap.Uint64("chain_id", req.ChainID),
	)

	snapshot, err := o.resolver.Resolve(ctx, req.PositionID, req.ChainID, req.Protocol)
	if err != nil {
		log.Warn("position resolution failed", zap.Error(err))
		return nil, err
	}
	snapshot.RequestID = requestID

	if o.tokens != nil && snapshot.PoolKey != nil {
		snapshot.Token0, snapshot.Token1 = o.tokens.PoolTokens(ctx, snapshot.ChainID, *snapshot.PoolKey)
	}

	if req.WalletAddress == "" || snapshot.Protocol != model.ProtocolV4 || !snapshot.CanSimulate() || o.simulator == nil {
		return snapshot, nil
	}

	result := o.simulator.Simulate(ctx, snapshot, req.WalletAddress, percentage)
	if !result.Success {
		log.Warn("decrease simulation failed",
			zap.String("failure_kind", string(result.FailureKind)),
			zap.String("error", result.Error),
		)
	}
	snapshot.Simulation = &result
	return snapshot, nil
}
