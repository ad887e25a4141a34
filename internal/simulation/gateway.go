package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

const (
	// DefaultBaseURL is the Uniswap trading API used by the web interface.
	DefaultBaseURL = "https://trading-api-labs.interface.gateway.uniswap.org/v1"
	decreasePath   = "/lp/decrease"

	maxErrorBody = 512
)

// DefaultHeaders are sent with every request unless overridden in Config.Headers.
var DefaultHeaders = map[string]string{
	"accept":                  "*/*",
	"content-type":            "application/json",
	"origin":                  "https://app.uniswap.org",
	"referer":                 "https://app.uniswap.org/",
	"x-request-source":        "uniswap-web",
	"x-uniquote-enabled":      "false",
	"x-viem-provider-enabled": "false",
}

// Config configures the gateway.
type Config struct {
	BaseURL string
	APIKey  string
	Headers map[string]string
	Timeout time.Duration
}

// Gateway submits liquidity-decrease simulations to the trading API.
// Simulate never returns an error; every failure is reported in the result.
type Gateway struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewGateway creates a gateway. A nil httpClient gets one with cfg.Timeout.
func NewGateway(cfg Config, httpClient *http.Client, logger *zap.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{cfg: cfg, client: httpClient, logger: logger}
}

// BuildRequest assembles the simulation body from a resolved snapshot.
func BuildRequest(snapshot *model.Snapshot, walletAddress string, percentage int) (model.SimulationRequest, error) {
	if !snapshot.CanSimulate() {
		return model.SimulationRequest{}, fmt.Errorf("insufficient position data for simulation")
	}
	if percentage == 0 {
		percentage = 100
	}
	key, info := snapshot.PoolKey, snapshot.PositionInfo
	return model.SimulationRequest{
		SimulateTransaction:           true,
		Protocol:                      "V4",
		TokenID:                       json.Number(snapshot.ID),
		ChainID:                       snapshot.ChainID,
		WalletAddress:                 walletAddress,
		LiquidityPercentageToDecrease: percentage,
		PositionLiquidity:             snapshot.Liquidity,
		Position: model.SimulationPosition{
			TickLower: info.TickLower,
			TickUpper: info.TickUpper,
			Pool: model.SimulationPool{
				Token0:      key.Currency0,
				Token1:      key.Currency1,
				Fee:         key.Fee,
				TickSpacing: key.TickSpacing,
				Hooks:       key.Hooks,
			},
		},
	}, nil
}

// ValidateRequest checks the fields the service requires.
func ValidateRequest(req model.SimulationRequest) error {
	var missing []string
	if req.TokenID == "" {
		missing = append(missing, "tokenId")
	}
	if req.ChainID == 0 {
		missing = append(missing, "chainId")
	}
	if req.WalletAddress == "" {
		missing = append(missing, "walletAddress")
	}
	if req.PositionLiquidity == "" {
		missing = append(missing, "positionLiquidity")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !common.IsHexAddress(req.WalletAddress) {
		return fmt.Errorf("wallet address %q is not a hex address", req.WalletAddress)
	}
	if req.LiquidityPercentageToDecrease < 1 || req.LiquidityPercentageToDecrease > 100 {
		return fmt.Errorf("liquidity percentage %d out of range [1, 100]", req.LiquidityPercentageToDecrease)
	}
	return nil
}

// Simulate requests a decrease preview for the snapshot.
func (g *Gateway) Simulate(ctx context.Context, snapshot *model.Snapshot, walletAddress string, percentage int) model.SimulationResult {
	req, err := BuildRequest(snapshot, walletAddress, percentage)
	if err != nil {
		return model.FailedSimulation(model.FailureInsufficientData, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return model.FailedSimulation(model.FailureInvalidRequest, err.Error())
	}
	return g.Submit(ctx, req)
}

// Submit posts a prepared request.
func (g *Gateway) Submit(ctx context.Context, req model.SimulationRequest) model.SimulationResult {
	body, err := json.Marshal(req)
	if err != nil {
		return model.FailedSimulation(model.FailureInvalidRequest, fmt.Sprintf("encode simulation request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+decreasePath, bytes.NewReader(body))
	if err != nil {
		return model.FailedSimulation(model.FailureInvalidRequest, fmt.Sprintf("build simulation request: %v", err))
	}
	for k, v := range DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range g.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	if g.cfg.APIKey != "" {
		httpReq.Header.Set("x-api-key", g.cfg.APIKey)
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return model.FailedSimulation(model.FailureTransport, fmt.Sprintf("simulation request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		g.logger.Debug("simulation service rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return model.FailedSimulation(model.FailureHTTPStatus,
			fmt.Sprintf("simulation service error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	var result model.SimulationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.FailedSimulation(model.FailureMalformedResponse, fmt.Sprintf("decode simulation response: %v", err))
	}
	if result.Decrease == nil {
		return model.FailedSimulation(model.FailureMalformedResponse, "simulation response has no decrease transaction")
	}
	result.Success = true
	result.FailureKind = ""
	result.Error = ""

	g.logger.Debug("simulation completed",
		zap.String("request_id", result.RequestID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}
