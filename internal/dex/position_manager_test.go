package dex

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(n *big.Int) []byte {
	return math.U256Bytes(new(big.Int).Set(n))
}

func addressWord(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func poolAndPositionInfoData(fee, tickSpacing int64, info *big.Int) []byte {
	var buf bytes.Buffer
	buf.Write(addressWord(common.Address{}))
	buf.Write(addressWord(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")))
	buf.Write(word(big.NewInt(fee)))
	buf.Write(word(big.NewInt(tickSpacing)))
	buf.Write(addressWord(common.HexToAddress("0x0000000000000000000000000000000000000abc")))
	buf.Write(word(info))
	return buf.Bytes()
}

func TestPackSelectors(t *testing.T) {
	tokenID := big.NewInt(12345)
	cases := map[string]func(*big.Int) ([]byte, error){
		"getPoolAndPositionInfo(uint256)": PackGetPoolAndPositionInfo,
		"getPositionLiquidity(uint256)":   PackGetPositionLiquidity,
	}
	for signature, pack := range cases {
		data, err := pack(tokenID)
		require.NoError(t, err, signature)
		require.Len(t, data, 36)
		assert.Equal(t, crypto.Keccak256([]byte(signature))[:4], data[:4], signature)
		assert.Equal(t, word(tokenID), data[4:], signature)
	}
}

func TestPackRejectsNegativeTokenID(t *testing.T) {
	_, err := PackGetPositionLiquidity(big.NewInt(-1))
	require.Error(t, err)
}

func TestUnpackPoolAndPositionInfo(t *testing.T) {
	info := big.NewInt(0x2AB)
	out, err := UnpackPoolAndPositionInfo(poolAndPositionInfoData(3000, -60, info))
	require.NoError(t, err)

	assert.Equal(t, "0x0000000000000000000000000000000000000000", out.PoolKey.Currency0)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", out.PoolKey.Currency1)
	assert.Equal(t, uint32(3000), out.PoolKey.Fee)
	assert.Equal(t, int32(-60), out.PoolKey.TickSpacing)
	assert.Equal(t, common.HexToAddress("0xabc").Hex(), out.PoolKey.Hooks)
	assert.Equal(t, uint64(0x2AB), out.Info.Uint64())
}

func TestUnpackPoolAndPositionInfoShortData(t *testing.T) {
	full := poolAndPositionInfoData(500, 10, big.NewInt(1))
	for _, data := range [][]byte{nil, full[:32], full[:191]} {
		_, err := UnpackPoolAndPositionInfo(data)
		require.ErrorIs(t, err, ErrAbiDecode)
	}
}

func TestUnpackPoolAndPositionInfoRejectsWideFee(t *testing.T) {
	data := poolAndPositionInfoData(0, 60, big.NewInt(1))
	fee := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 32), big.NewInt(3000))
	copy(data[64:96], word(fee))

	_, err := UnpackPoolAndPositionInfo(data)
	require.ErrorIs(t, err, ErrAbiDecode)

	copy(data[64:96], word(big.NewInt(1<<24-1)))
	out, err := UnpackPoolAndPositionInfo(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<24-1), out.PoolKey.Fee)
}

func TestUnpackPositionLiquidityRejectsWideWord(t *testing.T) {
	data := word(big.NewInt(1))
	data[0] = 0x01
	_, err := UnpackPositionLiquidity(data)
	require.ErrorIs(t, err, ErrAbiDecode)

	_, err = UnpackPositionLiquidity(word(new(big.Int).Lsh(big.NewInt(1), 128)))
	require.ErrorIs(t, err, ErrAbiDecode)
}

func TestUnpackPositionLiquidity(t *testing.T) {
	got, err := UnpackPositionLiquidity(word(big.NewInt(500000)))
	require.NoError(t, err)
	assert.Equal(t, "500000", got)

	maxUint128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	got, err = UnpackPositionLiquidity(word(maxUint128))
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", got)

	_, err = UnpackPositionLiquidity(make([]byte, 31))
	require.ErrorIs(t, err, ErrAbiDecode)
}
