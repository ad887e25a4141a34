package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

const nativeDecimals = 18

// ContractCaller runs read-only contract calls on a chain.
type ContractCaller interface {
	EthCall(ctx context.Context, chainID uint64, to common.Address, data []byte) ([]byte, error)
}

type tokenKey struct {
	chainID uint64
	address common.Address
}

// TokenMetaCache caches token metadata by chain and address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[tokenKey]model.TokenMeta
}

// NewTokenMetaCache returns an empty cache.
func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[tokenKey]model.TokenMeta)}
}

// Get returns the cached metadata of a token on a chain.
func (c *TokenMetaCache) Get(chainID uint64, address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[tokenKey{chainID, address}]
	c.mu.RUnlock()
	return meta, ok
}

// Set stores the metadata of a token on a chain.
func (c *TokenMetaCache) Set(chainID uint64, address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[tokenKey{chainID, address}] = meta
	c.mu.Unlock()
}

// TokenMetaFetcher resolves pool currencies to ERC20 metadata, with caching.
// The zero address is the chain's native currency and never hits the network.
type TokenMetaFetcher struct {
	caller  ContractCaller
	natives map[uint64]string
	cache   *TokenMetaCache
	logger  *zap.Logger
}

// NewTokenMetaFetcher creates a fetcher. natives maps chain id to native currency symbol; missing chains use ETH.
func NewTokenMetaFetcher(caller ContractCaller, natives map[uint64]string, logger *zap.Logger) *TokenMetaFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenMetaFetcher{
		caller:  caller,
		natives: natives,
		cache:   NewTokenMetaCache(),
		logger:  logger,
	}
}

// PoolTokens fetches metadata for both currencies of a pool key. Failures are logged
// and yield metadata carrying only the address.
func (f *TokenMetaFetcher) PoolTokens(ctx context.Context, chainID uint64, key model.PoolKey) (*model.TokenMeta, *model.TokenMeta) {
	token0 := f.Token(ctx, chainID, common.HexToAddress(key.Currency0))
	token1 := f.Token(ctx, chainID, common.HexToAddress(key.Currency1))
	return &token0, &token1
}

// Token fetches metadata for one currency.
func (f *TokenMetaFetcher) Token(ctx context.Context, chainID uint64, token common.Address) model.TokenMeta {
	if token == (common.Address{}) {
		return f.native(chainID)
	}
	if meta, ok := f.cache.Get(chainID, token); ok {
		return meta
	}
	meta, err := FetchTokenMeta(ctx, f.caller, chainID, token, f.logger)
	if err != nil {
		f.logger.Warn("token metadata fetch failed",
			zap.Uint64("chain_id", chainID),
			zap.String("token", token.Hex()),
			zap.Error(err),
		)
		return meta
	}
	f.cache.Set(chainID, token, meta)
	return meta
}

func (f *TokenMetaFetcher) native(chainID uint64) model.TokenMeta {
	symbol := f.natives[chainID]
	if symbol == "" {
		symbol = "ETH"
	}
	return model.TokenMeta{
		Address:  common.Address{}.Hex(),
		Decimals: nativeDecimals,
		Symbol:   symbol,
		Name:     "Native " + symbol,
		Native:   true,
	}
}

// FetchTokenMeta loads token metadata via ERC20 calls. Decimals is required;
// symbol and name fall back to the bytes32 variants and are otherwise left empty.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, chainID uint64, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20StringABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := caller.EthCall(ctx, chainID, token, data)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	text := func(method string) string {
		if values, err := call(method, stringABI); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := call(method, bytes32ABI)
		if err != nil {
			logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
			return ""
		}
		s, _ := bytes32ToString(values[0])
		return s
	}
	meta.Symbol = text("symbol")
	meta.Name = text("name")

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil big int")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	if value == nil {
		return 0, fmt.Errorf("nil int24")
	}
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
