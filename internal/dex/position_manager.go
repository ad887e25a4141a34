package dex

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"positionScope/internal/model"
)

// ErrAbiDecode is returned when contract return data is too short or malformed.
var ErrAbiDecode = errors.New("abi decode failed")

const (
	MethodGetPoolAndPositionInfo = "getPoolAndPositionInfo"
	MethodGetPositionLiquidity   = "getPositionLiquidity"

	// PoolKey is five static words, followed by the packed info word.
	poolAndPositionInfoSize = 6 * 32
	positionLiquiditySize   = 32
)

// PoolAndPositionInfo is the decoded result of getPoolAndPositionInfo.
type PoolAndPositionInfo struct {
	PoolKey model.PoolKey
	Info    *uint256.Int
}

type poolKeyTuple struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

// PackGetPoolAndPositionInfo encodes calldata for getPoolAndPositionInfo(tokenId).
func PackGetPoolAndPositionInfo(tokenID *big.Int) ([]byte, error) {
	return packPositionCall(MethodGetPoolAndPositionInfo, tokenID)
}

// PackGetPositionLiquidity encodes calldata for getPositionLiquidity(tokenId).
func PackGetPositionLiquidity(tokenID *big.Int) ([]byte, error) {
	return packPositionCall(MethodGetPositionLiquidity, tokenID)
}

func packPositionCall(method string, tokenID *big.Int) ([]byte, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return nil, fmt.Errorf("pack %s: token id must be a non-negative integer", method)
	}
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	data, err := parsed.Pack(method, tokenID)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// UnpackPoolAndPositionInfo decodes the return data of getPoolAndPositionInfo.
func UnpackPoolAndPositionInfo(data []byte) (PoolAndPositionInfo, error) {
	values, err := unpackPositionCall(MethodGetPoolAndPositionInfo, data, poolAndPositionInfoSize)
	if err != nil {
		return PoolAndPositionInfo{}, err
	}
	if len(values) != 2 {
		return PoolAndPositionInfo{}, fmt.Errorf("%w: %s returned %d values", ErrAbiDecode, MethodGetPoolAndPositionInfo, len(values))
	}

	tuple, err := asPoolKeyTuple(values[0])
	if err != nil {
		return PoolAndPositionInfo{}, err
	}
	fee, err := asBigInt(tuple.Fee)
	if err != nil {
		return PoolAndPositionInfo{}, fmt.Errorf("%w: fee: %v", ErrAbiDecode, err)
	}
	if fee.Sign() < 0 || fee.BitLen() > 24 {
		return PoolAndPositionInfo{}, fmt.Errorf("%w: fee %s exceeds uint24", ErrAbiDecode, fee)
	}
	tickSpacing, err := int24FromBig(tuple.TickSpacing)
	if err != nil {
		return PoolAndPositionInfo{}, fmt.Errorf("%w: tick spacing: %v", ErrAbiDecode, err)
	}

	infoBig, err := asBigInt(values[1])
	if err != nil {
		return PoolAndPositionInfo{}, fmt.Errorf("%w: info: %v", ErrAbiDecode, err)
	}
	info, overflow := uint256.FromBig(infoBig)
	if overflow {
		return PoolAndPositionInfo{}, fmt.Errorf("%w: info exceeds 256 bits", ErrAbiDecode)
	}

	return PoolAndPositionInfo{
		PoolKey: model.PoolKey{
			Currency0:   tuple.Currency0.Hex(),
			Currency1:   tuple.Currency1.Hex(),
			Fee:         uint32(fee.Uint64()),
			TickSpacing: tickSpacing,
			Hooks:       tuple.Hooks.Hex(),
		},
		Info: info,
	}, nil
}

// UnpackPositionLiquidity decodes the uint128 returned by getPositionLiquidity as a decimal string.
func UnpackPositionLiquidity(data []byte) (string, error) {
	values, err := unpackPositionCall(MethodGetPositionLiquidity, data, positionLiquiditySize)
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", fmt.Errorf("%w: %s returned %d values", ErrAbiDecode, MethodGetPositionLiquidity, len(values))
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return "", fmt.Errorf("%w: liquidity: %v", ErrAbiDecode, err)
	}
	if liquidity.Sign() < 0 || liquidity.BitLen() > 128 {
		return "", fmt.Errorf("%w: liquidity %s exceeds uint128", ErrAbiDecode, liquidity)
	}
	return liquidity.String(), nil
}

func unpackPositionCall(method string, data []byte, minSize int) ([]interface{}, error) {
	if len(data) < minSize {
		return nil, fmt.Errorf("%w: %s returned %d bytes, want at least %d", ErrAbiDecode, method, len(data), minSize)
	}
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	values, err := parsed.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrAbiDecode, method, err)
	}
	return values, nil
}

func asPoolKeyTuple(value interface{}) (tuple poolKeyTuple, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: pool key: %v", ErrAbiDecode, r)
		}
	}()
	converted, ok := abi.ConvertType(value, new(poolKeyTuple)).(*poolKeyTuple)
	if !ok || converted == nil {
		return poolKeyTuple{}, fmt.Errorf("%w: pool key has type %T", ErrAbiDecode, value)
	}
	return *converted, nil
}
