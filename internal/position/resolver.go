package position

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"positionScope/internal/chain"
	"positionScope/internal/dex"
	"positionScope/internal/model"
)

var maxTokenID = new(big.Int).Lsh(big.NewInt(1), 256)

// ChainDirectory answers which chains are supported and where their position manager lives.
type ChainDirectory interface {
	Supported(chainID uint64) bool
	PositionManager(chainID uint64) (common.Address, error)
}

// Resolver reads position state from the v4 PositionManager.
type Resolver struct {
	chains ChainDirectory
	caller dex.ContractCaller
	logger *zap.Logger
}

// NewResolver creates a resolver over a chain directory and contract caller.
func NewResolver(chains ChainDirectory, caller dex.ContractCaller, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{chains: chains, caller: caller, logger: logger}
}

// ParsePositionID parses a decimal or 0x-prefixed hex token id below 2^256.
func ParsePositionID(id string) (*big.Int, error) {
	s := strings.TrimSpace(id)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPositionID)
	}
	if s[0] == '+' || s[0] == '-' {
		return nil, fmt.Errorf("%w: %q is signed", ErrInvalidPositionID, id)
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	value, ok := new(big.Int).SetString(s, base)
	if !ok || s == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPositionID, id)
	}
	if value.Sign() < 0 || value.Cmp(maxTokenID) >= 0 {
		return nil, fmt.Errorf("%w: %q out of range", ErrInvalidPositionID, id)
	}
	return value, nil
}

// Resolve returns a snapshot of a position. v3 positions are acknowledged with an
// unsupported status and no on-chain data. For v4 both contract reads run
// concurrently; if either fails the whole resolution fails.
func (r *Resolver) Resolve(ctx context.Context, positionID string, chainID uint64, protocol model.Protocol) (*model.Snapshot, error) {
	tokenID, err := ParsePositionID(positionID)
	if err != nil {
		return nil, &ResolveError{PositionID: positionID, ChainID: chainID, Err: err}
	}
	id := tokenID.String()
	wrap := func(err error) error {
		return &ResolveError{PositionID: id, ChainID: chainID, Err: err}
	}

	if !r.chains.Supported(chainID) {
		return nil, wrap(fmt.Errorf("chain %d: %w", chainID, chain.ErrUnsupportedChain))
	}

	switch protocol {
	case model.ProtocolV3:
		r.logger.Debug("v3 position resolution not supported", zap.String("position_id", id), zap.Uint64("chain_id", chainID))
		return &model.Snapshot{ID: id, Protocol: model.ProtocolV3, ChainID: chainID, Status: model.StatusUnsupported}, nil
	case model.ProtocolV4:
	default:
		return nil, wrap(fmt.Errorf("unknown protocol %q", protocol))
	}

	manager, err := r.chains.PositionManager(chainID)
	if err != nil {
		return nil, wrap(err)
	}

	infoData, err := dex.PackGetPoolAndPositionInfo(tokenID)
	if err != nil {
		return nil, wrap(err)
	}
	liquidityData, err := dex.PackGetPositionLiquidity(tokenID)
	if err != nil {
		return nil, wrap(err)
	}

	var (
		poolAndInfo dex.PoolAndPositionInfo
		liquidity   string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := r.caller.EthCall(gctx, chainID, manager, infoData)
		if err != nil {
			return fmt.Errorf("call %s: %w", dex.MethodGetPoolAndPositionInfo, err)
		}
		poolAndInfo, err = dex.UnpackPoolAndPositionInfo(resp)
		return err
	})
	g.Go(func() error {
		resp, err := r.caller.EthCall(gctx, chainID, manager, liquidityData)
		if err != nil {
			return fmt.Errorf("call %s: %w", dex.MethodGetPositionLiquidity, err)
		}
		liquidity, err = dex.UnpackPositionLiquidity(resp)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrap(err)
	}

	info := dex.DecodePositionInfo(poolAndInfo.Info)
	key := poolAndInfo.PoolKey
	r.logger.Debug("position resolved",
		zap.String("position_id", id),
		zap.Uint64("chain_id", chainID),
		zap.String("pool_id", info.PoolID),
		zap.String("liquidity", liquidity),
	)

	return &model.Snapshot{
		ID:           id,
		Protocol:     model.ProtocolV4,
		ChainID:      chainID,
		Status:       model.StatusResolved,
		PoolKey:      &key,
		PositionInfo: &info,
		Liquidity:    liquidity,
	}, nil
}
