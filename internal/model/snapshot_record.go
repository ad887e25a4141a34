package model

import "time"

// SnapshotRecord is the flattened row persisted by relational sinks.
type SnapshotRecord struct {
	RequestID         string
	PositionID        string
	Protocol          string
	ChainID           uint64
	Status            string
	Currency0         *string
	Currency1         *string
	Fee               *uint32
	TickSpacing       *int32
	Hooks             *string
	HasSubscriber     *bool
	TickLower         *int32
	TickUpper         *int32
	PoolID            *string
	Liquidity         *string
	SimulationSuccess *bool
	SimulationError   *string
	GasFee            *string
	ResolvedAt        time.Time
}

// NewSnapshotRecord flattens a snapshot for storage.
func NewSnapshotRecord(s Snapshot, resolvedAt time.Time) SnapshotRecord {
	rec := SnapshotRecord{
		RequestID:  s.RequestID,
		PositionID: s.ID,
		Protocol:   string(s.Protocol),
		ChainID:    s.ChainID,
		Status:     string(s.Status),
		ResolvedAt: resolvedAt.UTC(),
	}

	if key := s.PoolKey; key != nil {
		rec.Currency0 = &key.Currency0
		rec.Currency1 = &key.Currency1
		rec.Fee = &key.Fee
		rec.TickSpacing = &key.TickSpacing
		rec.Hooks = &key.Hooks
	}
	if info := s.PositionInfo; info != nil {
		rec.HasSubscriber = &info.HasSubscriber
		rec.TickLower = &info.TickLower
		rec.TickUpper = &info.TickUpper
		rec.PoolID = &info.PoolID
	}
	if s.Liquidity != "" {
		liquidity := s.Liquidity
		rec.Liquidity = &liquidity
	}
	if sim := s.Simulation; sim != nil {
		rec.SimulationSuccess = &sim.Success
		if sim.Error != "" {
			rec.SimulationError = &sim.Error
		}
		if sim.GasFee != "" {
			rec.GasFee = &sim.GasFee
		}
	}
	return rec
}
