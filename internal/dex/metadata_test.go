package dex

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"positionScope/internal/model"
)

type fakeToken struct {
	decimals uint8
	symbol   string
	name     string
	bytes32  bool
}

type fakeCaller struct {
	tokens map[common.Address]fakeToken
	calls  int
}

func (f *fakeCaller) EthCall(_ context.Context, _ uint64, to common.Address, data []byte) ([]byte, error) {
	f.calls++
	tok, ok := f.tokens[to]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	parsed, err := erc20StringABI.get()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(tok.decimals)
	case "symbol", "name":
		value := tok.symbol
		if method.Name == "name" {
			value = tok.name
		}
		if tok.bytes32 {
			var b [32]byte
			copy(b[:], value)
			return b[:], nil
		}
		return method.Outputs.Pack(value)
	}
	return nil, errors.New("unknown method")
}

var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	mkr  = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
)

func TestFetchTokenMetaString(t *testing.T) {
	caller := &fakeCaller{tokens: map[common.Address]fakeToken{
		usdc: {decimals: 6, symbol: "USDC", name: "USD Coin"},
	}}
	meta, err := FetchTokenMeta(context.Background(), caller, 1, usdc, nil)
	require.NoError(t, err)
	assert.Equal(t, model.TokenMeta{Address: usdc.Hex(), Decimals: 6, Symbol: "USDC", Name: "USD Coin"}, meta)
}

func TestFetchTokenMetaBytes32Fallback(t *testing.T) {
	caller := &fakeCaller{tokens: map[common.Address]fakeToken{
		mkr: {decimals: 18, symbol: "MKR", name: "Maker", bytes32: true},
	}}
	meta, err := FetchTokenMeta(context.Background(), caller, 1, mkr, nil)
	require.NoError(t, err)
	assert.Equal(t, "MKR", meta.Symbol)
	assert.Equal(t, "Maker", meta.Name)
	assert.Equal(t, uint8(18), meta.Decimals)
}

func TestFetchTokenMetaDecimalsRequired(t *testing.T) {
	caller := &fakeCaller{}
	meta, err := FetchTokenMeta(context.Background(), caller, 1, usdc, nil)
	require.Error(t, err)
	assert.Equal(t, usdc.Hex(), meta.Address)
}

func TestTokenMetaFetcherNativeAndCache(t *testing.T) {
	caller := &fakeCaller{tokens: map[common.Address]fakeToken{
		usdc: {decimals: 6, symbol: "USDC", name: "USD Coin"},
	}}
	fetcher := NewTokenMetaFetcher(caller, map[uint64]string{130: "ETH"}, nil)
	key := model.PoolKey{Currency0: common.Address{}.Hex(), Currency1: usdc.Hex()}

	token0, token1 := fetcher.PoolTokens(context.Background(), 130, key)
	require.NotNil(t, token0)
	require.NotNil(t, token1)
	assert.True(t, token0.Native)
	assert.Equal(t, uint8(18), token0.Decimals)
	assert.Equal(t, "ETH", token0.Symbol)
	assert.Equal(t, "USDC", token1.Symbol)
	calls := caller.calls

	_, token1 = fetcher.PoolTokens(context.Background(), 130, key)
	assert.Equal(t, "USDC", token1.Symbol)
	assert.Equal(t, calls, caller.calls, "second lookup must be served from cache")
}

func TestTokenMetaFetcherFailureKeepsAddress(t *testing.T) {
	fetcher := NewTokenMetaFetcher(&fakeCaller{}, nil, nil)
	meta := fetcher.Token(context.Background(), 1, usdc)
	assert.Equal(t, usdc.Hex(), meta.Address)
	assert.Empty(t, meta.Symbol)
}
