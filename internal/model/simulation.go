package model

import "encoding/json"

// FailureKind classifies why a decrease simulation did not succeed.
type FailureKind string

const (
	FailureInsufficientData  FailureKind = "insufficient_data"
	FailureInvalidRequest    FailureKind = "invalid_request"
	FailureTransport         FailureKind = "transport"
	FailureHTTPStatus        FailureKind = "http_status"
	FailureMalformedResponse FailureKind = "malformed_response"
)

// SimulationPool is the pool description sent to the simulation service.
type SimulationPool struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tickSpacing"`
	Hooks       string `json:"hooks"`
}

// SimulationPosition is the position description sent to the simulation service.
type SimulationPosition struct {
	TickLower int32          `json:"tickLower"`
	TickUpper int32          `json:"tickUpper"`
	Pool      SimulationPool `json:"pool"`
}

// SimulationRequest is the body of a liquidity-decrease simulation call.
type SimulationRequest struct {
	SimulateTransaction           bool               `json:"simulateTransaction"`
	Protocol                      string             `json:"protocol"`
	TokenID                       json.Number        `json:"tokenId"`
	ChainID                       uint64             `json:"chainId"`
	WalletAddress                 string             `json:"walletAddress"`
	LiquidityPercentageToDecrease int                `json:"liquidityPercentageToDecrease"`
	PositionLiquidity             string             `json:"positionLiquidity"`
	Position                      SimulationPosition `json:"position"`
}

// DecreaseTransaction is the unsigned transaction the service prepared.
type DecreaseTransaction struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasPrice string `json:"gasPrice"`
	GasLimit string `json:"gasLimit"`
	ChainID  uint64 `json:"chainId"`
}

// SimulationResult carries either a successful preview or a failure description.
// Field names follow the simulation service wire format.
type SimulationResult struct {
	Success       bool                 `json:"success"`
	RequestID     string               `json:"requestId,omitempty"`
	Decrease      *DecreaseTransaction `json:"decrease,omitempty"`
	PoolLiquidity string               `json:"poolLiquidity,omitempty"`
	CurrentTick   int32                `json:"currentTick"`
	SqrtRatioX96  string               `json:"sqrtRatioX96,omitempty"`
	GasFee        string               `json:"gasFee,omitempty"`
	FailureKind   FailureKind          `json:"failureKind,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// FailedSimulation builds a failed result.
func FailedSimulation(kind FailureKind, message string) SimulationResult {
	return SimulationResult{Success: false, FailureKind: kind, Error: message}
}
