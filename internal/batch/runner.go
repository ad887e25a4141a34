package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"positionScope/internal/chain"
	"positionScope/internal/model"
	"positionScope/internal/position"
	"positionScope/internal/storage"
)

// PositionSource resolves one position request.
type PositionSource interface {
	GetPositionWithSimulation(ctx context.Context, req position.Request) (*model.Snapshot, error)
}

// FailureSink records positions that could not be resolved.
type FailureSink interface {
	PutFailures(failures []model.ResolveFailure) error
}

// RunConfig holds runtime settings for a batch run.
type RunConfig struct {
	Input             string
	Protocol          model.Protocol
	Wallet            string
	Percentage        int
	Rate              float64
	MaxRetries        int
	RetryBackoff      time.Duration
	FlushSize         int
	CheckpointPath    string
	CheckpointEnabled bool
}

// Summary counts the outcomes of a run.
type Summary struct {
	Resolved    int `json:"resolved"`
	Unsupported int `json:"unsupported"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
}

// Runner resolves a list of positions and writes the results to sinks.
type Runner struct {
	cfg        RunConfig
	source     PositionSource
	sink       storage.SnapshotSink
	failures   FailureSink
	limiter    *rate.Limiter
	checkpoint *CheckpointStore
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies. failures may be nil.
func NewRunner(cfg RunConfig, source PositionSource, sink storage.SnapshotSink, failures FailureSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = 50
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		sink:       sink,
		failures:   failures,
		limiter:    rate.NewLimiter(limit, 1),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		logger:     logger,
	}
}

// Run resolves every target after the checkpoint. A failed position is recorded
// and the run continues; only sink, checkpoint and context errors stop it.
func (r *Runner) Run(ctx context.Context, targets []Target) (Summary, error) {
	var summary Summary
	if r.source == nil {
		return summary, fmt.Errorf("position source is nil")
	}
	if r.sink == nil {
		return summary, fmt.Errorf("snapshot sink is nil")
	}

	lastDone := 0
	cp, ok, err := r.checkpoint.Load(r.cfg.Input)
	if err != nil {
		return summary, err
	}
	if ok {
		lastDone = cp.LastLine
		r.logger.Info("resume from checkpoint", zap.Int("last_line", cp.LastLine))
	}

	var (
		snapshots []model.Snapshot
		failed    []model.ResolveFailure
		pending   int
	)
	flush := func(lastLine int) error {
		if err := r.sink.PutSnapshots(ctx, snapshots); err != nil {
			return fmt.Errorf("store snapshots: %w", err)
		}
		if r.failures != nil {
			if err := r.failures.PutFailures(failed); err != nil {
				return fmt.Errorf("store failures: %w", err)
			}
		}
		if err := r.checkpoint.Save(r.cfg.Input, lastLine); err != nil {
			return err
		}
		r.logger.Info("batch flushed",
			zap.Int("snapshots", len(snapshots)),
			zap.Int("failures", len(failed)),
			zap.Int("last_line", lastLine),
		)
		snapshots, failed, pending = snapshots[:0], failed[:0], 0
		return nil
	}

	for _, target := range targets {
		if target.Line <= lastDone {
			summary.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			if pending > 0 {
				if ferr := flush(lastDone); ferr != nil {
					return summary, errors.Join(err, ferr)
				}
			}
			return summary, err
		}

		snapshot, err := r.resolve(ctx, target)
		switch {
		case err == nil:
			snapshots = append(snapshots, *snapshot)
			if snapshot.Status == model.StatusUnsupported {
				summary.Unsupported++
			} else {
				summary.Resolved++
			}
		case ctx.Err() != nil:
			// Canceled mid-request: leave the target for the next run.
			if pending > 0 {
				if ferr := flush(lastDone); ferr != nil {
					return summary, errors.Join(ctx.Err(), ferr)
				}
			}
			return summary, ctx.Err()
		default:
			summary.Failed++
			failed = append(failed, model.ResolveFailure{
				Line:       target.Line,
				PositionID: target.PositionID,
				ChainID:    target.ChainID,
				Protocol:   r.cfg.Protocol,
				Error:      err.Error(),
			})
			r.logger.Warn("position failed",
				zap.Int("line", target.Line),
				zap.String("position_id", target.PositionID),
				zap.Uint64("chain_id", target.ChainID),
				zap.Error(err),
			)
		}

		lastDone = target.Line
		pending++
		if pending >= r.cfg.FlushSize {
			if err := flush(lastDone); err != nil {
				return summary, err
			}
		}
	}

	if pending > 0 {
		if err := flush(lastDone); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// resolve retries transport failures with exponential backoff. Any other error is final.
func (r *Runner) resolve(ctx context.Context, target Target) (*model.Snapshot, error) {
	req := position.Request{
		PositionID:    target.PositionID,
		Protocol:      r.cfg.Protocol,
		ChainID:       target.ChainID,
		WalletAddress: r.cfg.Wallet,
		Percentage:    r.cfg.Percentage,
	}

	policy := backoff.NewExponentialBackOff()
	if r.cfg.RetryBackoff > 0 {
		policy.InitialInterval = r.cfg.RetryBackoff
		policy.MaxInterval = r.cfg.RetryBackoff * 10
	}
	maxTries := uint(1)
	if r.cfg.MaxRetries > 0 {
		maxTries += uint(r.cfg.MaxRetries)
	}

	operation := func() (*model.Snapshot, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		snapshot, err := r.source.GetPositionWithSimulation(ctx, req)
		if err == nil {
			return snapshot, nil
		}
		var transportErr *chain.TransportError
		if errors.As(err, &transportErr) && ctx.Err() == nil {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	notify := func(err error, next time.Duration) {
		r.logger.Info("retrying position",
			zap.String("position_id", target.PositionID),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(notify),
	)
}
