package storage

import (
	"context"
	"errors"

	"positionScope/internal/model"
)

// SnapshotSink persists resolved snapshots.
type SnapshotSink interface {
	PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error
}

// MultiSink writes every batch to each sink in order and joins their errors.
type MultiSink []SnapshotSink

func (m MultiSink) PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PutSnapshots(ctx, snapshots); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
