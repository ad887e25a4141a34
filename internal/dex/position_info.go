package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"positionScope/internal/model"
)

// PositionInfo packs four fields into one word, from the least significant bit:
//
//	[0, 8)     hasSubscriber
//	[8, 32)    tickLower   int24
//	[32, 56)   tickUpper   int24
//	[56, 256)  poolId      bytes25
const (
	tickLowerOffset = 8
	tickUpperOffset = 32
	poolIDOffset    = 56
	poolIDBytes     = 25

	int24Mask = 0xffffff
	int24Sign = 1 << 23
)

// DecodePositionInfo unpacks a PositionInfo word. Every 256-bit value decodes.
func DecodePositionInfo(info *uint256.Int) model.PositionInfo {
	if info == nil {
		info = new(uint256.Int)
	}
	word := info.Bytes32()
	return model.PositionInfo{
		HasSubscriber: info.Uint64()&0xff != 0,
		TickLower:     Int24(uint32(new(uint256.Int).Rsh(info, tickLowerOffset).Uint64())),
		TickUpper:     Int24(uint32(new(uint256.Int).Rsh(info, tickUpperOffset).Uint64())),
		PoolID:        hexutil.Encode(word[:poolIDBytes]),
	}
}

// Int24 reads the low 24 bits of raw as a two's complement signed integer.
func Int24(raw uint32) int32 {
	raw &= int24Mask
	if raw >= int24Sign {
		return int32(raw) - (1 << 24)
	}
	return int32(raw)
}

// EncodePositionInfo packs fields back into a word. Ticks must fit in int24
// and the pool id must be at most 25 bytes.
func EncodePositionInfo(p model.PositionInfo) (*uint256.Int, error) {
	for name, tick := range map[string]int32{"tick lower": p.TickLower, "tick upper": p.TickUpper} {
		if tick < -int24Sign || tick >= int24Sign {
			return nil, fmt.Errorf("%s %d overflows int24", name, tick)
		}
	}

	out := new(uint256.Int)
	if p.PoolID != "" {
		raw, err := hexutil.Decode(p.PoolID)
		if err != nil {
			return nil, fmt.Errorf("decode pool id: %w", err)
		}
		if len(raw) > poolIDBytes {
			return nil, fmt.Errorf("pool id is %d bytes, max %d", len(raw), poolIDBytes)
		}
		out.SetBytes(raw)
		out.Lsh(out, poolIDOffset)
	}

	upper := uint256.NewInt(uint64(uint32(p.TickUpper) & int24Mask))
	lower := uint256.NewInt(uint64(uint32(p.TickLower) & int24Mask))
	out.Or(out, upper.Lsh(upper, tickUpperOffset))
	out.Or(out, lower.Lsh(lower, tickLowerOffset))
	if p.HasSubscriber {
		out.Or(out, uint256.NewInt(1))
	}
	return out, nil
}

// ParsePackedInfo parses a PositionInfo word written as 0x-prefixed hex or decimal.
func ParsePackedInfo(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty position info")
	}
	value, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid position info %q", s)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("position info %q is negative", s)
	}
	out, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("position info %q exceeds 256 bits", s)
	}
	return out, nil
}
