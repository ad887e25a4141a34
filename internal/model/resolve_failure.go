package model

// ResolveFailure records a position that could not be resolved in batch mode.
type ResolveFailure struct {
	Line       int      `json:"line"`
	PositionID string   `json:"position_id"`
	ChainID    uint64   `json:"chain_id"`
	Protocol   Protocol `json:"protocol"`
	Error      string   `json:"error"`
}
