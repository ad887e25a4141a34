package position

import (
	"errors"
	"fmt"
)

// ErrInvalidPositionID is returned when a position id is not an unsigned 256-bit integer.
var ErrInvalidPositionID = errors.New("invalid position id")

// ResolveError tags a resolution failure with the position and chain it concerns.
type ResolveError struct {
	PositionID string
	ChainID    uint64
	Err        error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve position %s on chain %d: %v", e.PositionID, e.ChainID, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
