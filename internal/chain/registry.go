package chain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain is one registry entry.
type Chain struct {
	ID              uint64
	Name            string
	NativeSymbol    string
	RPCURL          string
	PositionManager common.Address
	PoolManager     common.Address
}

// DefaultChains lists the supported networks with their Uniswap v4 deployments.
// RPC URLs are deliberately empty and must come from configuration.
var DefaultChains = []Chain{
	{
		ID:              1,
		Name:            "mainnet",
		NativeSymbol:    "ETH",
		PositionManager: common.HexToAddress("0xbD216513d74C8cf14cf4747E6AaA6420FF64ee9e"),
		PoolManager:     common.HexToAddress("0x000000000004444c5dc75cB358380D2e3dE08A90"),
	},
	{
		ID:              8453,
		Name:            "base",
		NativeSymbol:    "ETH",
		PositionManager: common.HexToAddress("0x7C5f5A4bBd8fD63184577525326123B519429bDc"),
		PoolManager:     common.HexToAddress("0x498581fF718922c3f8e6A244956aF099B2652b2b"),
	},
	{
		ID:              130,
		Name:            "unichain",
		NativeSymbol:    "ETH",
		PositionManager: common.HexToAddress("0x4529A01c7A0410167c5740C487A8DE60232617bf"),
		PoolManager:     common.HexToAddress("0x1F98400000000000000000000000000000000004"),
	},
}

// Registry maps chain ids to endpoints and contract addresses. It is read-only after construction.
type Registry struct {
	chains map[uint64]Chain
}

// NewRegistry builds a registry from the given entries. Later duplicates replace earlier ones.
func NewRegistry(chains []Chain) *Registry {
	r := &Registry{chains: make(map[uint64]Chain, len(chains))}
	for _, c := range chains {
		c.RPCURL = strings.TrimSpace(c.RPCURL)
		r.chains[c.ID] = c
	}
	return r
}

// Lookup returns the entry for a chain without validating its endpoint.
func (r *Registry) Lookup(chainID uint64) (Chain, bool) {
	c, ok := r.chains[chainID]
	return c, ok
}

// Supported reports whether the chain id is in the registry.
func (r *Registry) Supported(chainID uint64) bool {
	_, ok := r.chains[chainID]
	return ok
}

// Resolve returns the entry for a chain, failing if the chain is unknown or its RPC URL is unusable.
func (r *Registry) Resolve(chainID uint64) (Chain, error) {
	c, ok := r.chains[chainID]
	if !ok {
		return Chain{}, fmt.Errorf("chain %d: %w", chainID, ErrUnsupportedChain)
	}
	if c.RPCURL == "" {
		return Chain{}, fmt.Errorf("chain %d has no rpc url: %w", chainID, ErrMisconfiguredEndpoint)
	}
	if IsPlaceholderURL(c.RPCURL) {
		return Chain{}, fmt.Errorf("chain %d rpc url is a placeholder: %w", chainID, ErrMisconfiguredEndpoint)
	}
	return c, nil
}

// PositionManager returns the v4 position manager address for a chain.
func (r *Registry) PositionManager(chainID uint64) (common.Address, error) {
	c, ok := r.chains[chainID]
	if !ok {
		return common.Address{}, fmt.Errorf("chain %d: %w", chainID, ErrUnsupportedChain)
	}
	if c.PositionManager == (common.Address{}) {
		return common.Address{}, fmt.Errorf("position manager on chain %d: %w", chainID, ErrUnconfiguredContract)
	}
	return c.PositionManager, nil
}

// IDs returns the registered chain ids in ascending order.
func (r *Registry) IDs() []uint64 {
	ids := make([]uint64, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks every entry and joins all configuration problems found.
func (r *Registry) Validate() error {
	var errs []error
	for _, id := range r.IDs() {
		if _, err := r.Resolve(id); err != nil {
			errs = append(errs, err)
		}
		if _, err := r.PositionManager(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsPlaceholderURL detects template values left in configuration, such as
// "https://mainnet.infura.io/v3/YOUR_API_KEY".
func IsPlaceholderURL(url string) bool {
	upper := strings.ToUpper(url)
	return strings.Contains(upper, "YOUR_") || strings.Contains(upper, "${")
}
