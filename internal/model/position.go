package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Protocol is the Uniswap protocol version a position belongs to.
type Protocol string

const (
	ProtocolV3 Protocol = "v3"
	ProtocolV4 Protocol = "v4"
)

// ParseProtocol normalizes a protocol version string.
func ParseProtocol(input string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "v3":
		return ProtocolV3, nil
	case "v4":
		return ProtocolV4, nil
	default:
		return "", fmt.Errorf("unsupported protocol version: %q", input)
	}
}

// SnapshotStatus tells callers how much of a snapshot was resolved.
type SnapshotStatus string

const (
	StatusResolved SnapshotStatus = "resolved"
	// StatusUnsupported marks a snapshot that carries only id, protocol and chain.
	StatusUnsupported SnapshotStatus = "unsupported"
)

// PoolKey identifies a v4 pool.
type PoolKey struct {
	Currency0   string `json:"currency0"`
	Currency1   string `json:"currency1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Hooks       string `json:"hooks"`
}

// PositionInfo is the decoded form of the packed on-chain PositionInfo word.
type PositionInfo struct {
	HasSubscriber bool   `json:"has_subscriber"`
	TickLower     int32  `json:"tick_lower"`
	TickUpper     int32  `json:"tick_upper"`
	PoolID        string `json:"pool_id"`
}

// Snapshot is the unified view of a position returned to callers.
type Snapshot struct {
	RequestID    string            `json:"request_id,omitempty"`
	ID           string            `json:"id"`
	Protocol     Protocol          `json:"protocol"`
	ChainID      uint64            `json:"chain_id"`
	Status       SnapshotStatus    `json:"status"`
	PoolKey      *PoolKey          `json:"pool_key,omitempty"`
	PositionInfo *PositionInfo     `json:"position_info,omitempty"`
	Liquidity    string            `json:"liquidity,omitempty"`
	Token0       *TokenMeta        `json:"token0_meta,omitempty"`
	Token1       *TokenMeta        `json:"token1_meta,omitempty"`
	Simulation   *SimulationResult `json:"decrease_simulation,omitempty"`
}

// CanSimulate reports whether the snapshot carries everything a decrease simulation needs.
func (s *Snapshot) CanSimulate() bool {
	return s != nil && s.PoolKey != nil && s.PositionInfo != nil && s.Liquidity != ""
}

// MarshalJSON adds the flat token/fee/tick fields older consumers read.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type Alias Snapshot
	out := struct {
		Alias
		Token0    string  `json:"token0,omitempty"`
		Token1    string  `json:"token1,omitempty"`
		Fee       *uint32 `json:"fee,omitempty"`
		TickLower *int32  `json:"tick_lower,omitempty"`
		TickUpper *int32  `json:"tick_upper,omitempty"`
	}{Alias: Alias(s)}

	if s.PoolKey != nil {
		out.Token0 = s.PoolKey.Currency0
		out.Token1 = s.PoolKey.Currency1
		fee := s.PoolKey.Fee
		out.Fee = &fee
	}
	if s.PositionInfo != nil {
		lower, upper := s.PositionInfo.TickLower, s.PositionInfo.TickUpper
		out.TickLower = &lower
		out.TickUpper = &upper
	}
	return json.Marshal(out)
}
