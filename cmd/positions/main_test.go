package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecodeInfoJSON(t *testing.T) {
	out, err := execute(t, "decode-info", "0x2AB", "--json")
	require.NoError(t, err)

	var info model.PositionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.True(t, info.HasSubscriber)
	assert.Equal(t, int32(2), info.TickLower)
	assert.Equal(t, int32(0), info.TickUpper)
	assert.Equal(t, "0x"+strings.Repeat("0", 50), info.PoolID)
}

func TestDecodeInfoTable(t *testing.T) {
	out, err := execute(t, "decode-info", "683")
	require.NoError(t, err)
	assert.Contains(t, out, "true")
}

func TestDecodeInfoRejectsGarbage(t *testing.T) {
	_, err := execute(t, "decode-info", "0xnothex")
	require.Error(t, err)
}

func TestInspectRequiresID(t *testing.T) {
	_, err := execute(t, "inspect", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position id is required")
}

func TestInspectRejectsPercentage(t *testing.T) {
	_, err := execute(t, "inspect", "1", "--percentage", "101", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "percentage")
}

func word(n int64) []byte {
	return math.U256Bytes(big.NewInt(n))
}

func rpcServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	infoData, err := dex.PackGetPoolAndPositionInfo(big.NewInt(1))
	require.NoError(t, err)
	infoSelector := hexutil.Encode(infoData[:4])

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Params []json.RawMessage `json:"params"`
		}
		var args struct {
			Data string `json:"data"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.NotEmpty(t, req.Params) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		assert.NoError(t, json.Unmarshal(req.Params[0], &args))

		var result []byte
		if strings.HasPrefix(args.Data, infoSelector) {
			var buf bytes.Buffer
			buf.Write(common.LeftPadBytes(nil, 32))
			buf.Write(common.LeftPadBytes(common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48").Bytes(), 32))
			buf.Write(word(3000))
			buf.Write(word(60))
			buf.Write(common.LeftPadBytes(nil, 32))
			buf.Write(word(0x2AB))
			result = buf.Bytes()
		} else {
			result = word(500000)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexutil.Encode(result),
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestInspectAndHistory(t *testing.T) {
	srv, hits := rpcServer(t)
	db := filepath.Join(t.TempDir(), "positions.db")

	out, err := execute(t, "inspect", "0x3039",
		"--rpc", srv.URL,
		"--json",
		"--sqlite", db,
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	var snapshot model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snapshot))
	assert.Equal(t, "12345", snapshot.ID)
	assert.Equal(t, model.StatusResolved, snapshot.Status)
	assert.Equal(t, "500000", snapshot.Liquidity)
	require.NotNil(t, snapshot.PoolKey)
	assert.Equal(t, uint32(3000), snapshot.PoolKey.Fee)
	assert.NotEmpty(t, snapshot.RequestID)
	assert.Nil(t, snapshot.Simulation)

	out, err = execute(t, "history", "--sqlite", db, "--id", "12345", "--chain", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved")
	assert.Contains(t, out, "500000")
	assert.Contains(t, out, "[2, 0]")
}

func TestInspectUnsupportedChain(t *testing.T) {
	srv, hits := rpcServer(t)

	_, err := execute(t, "inspect", "1", "--chain", "10", "--rpc", srv.URL, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position data unavailable")
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, "history", "--sqlite", db, "--id", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "no snapshots of position 9 on chain 1")
}
