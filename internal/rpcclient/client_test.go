package rpcclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lgingerich/evm-indexer/internal/metrics"
	"github.com/lgingerich/evm-indexer/internal/retry"
)

type jsonrpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func jsonrpcHandler(t *testing.T, handle func(method string, params []json.RawMessage) (interface{}, *jsonrpcError)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handle(req.Method, req.Params)
		resp := jsonrpcResponse{JSONRPC: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			b, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = b
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func fastRetryOpts() retry.Options {
	return retry.Options{MaxAttempts: 2, BaseDelay: time.Millisecond, Exponential: false, Jitter: false}
}

func TestClient_GetBlockNumber(t *testing.T) {
	srv := httptest.NewServer(jsonrpcHandler(t, func(method string, params []json.RawMessage) (interface{}, *jsonrpcError) {
		assert.Equal(t, "eth_blockNumber", method)
		return "0x64", nil
	}))
	defer srv.Close()

	reg := metrics.New()
	client, err := Dial(t.Context(), "ethereum", []string{srv.URL}, fastRetryOpts(), zap.NewNop(), reg)
	require.NoError(t, err)
	defer client.Close()

	n, err := client.GetBlockNumber(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), n)
}

func TestClient_GetBlock_NotFound(t *testing.T) {
	srv := httptest.NewServer(jsonrpcHandler(t, func(method string, params []json.RawMessage) (interface{}, *jsonrpcError) {
		return nil, nil // result: null
	}))
	defer srv.Close()

	reg := metrics.New()
	client, err := Dial(t.Context(), "ethereum", []string{srv.URL}, fastRetryOpts(), zap.NewNop(), reg)
	require.NoError(t, err)
	defer client.Close()

	block, err := client.GetBlock(t.Context(), 100)
	assert.Nil(t, block)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GetBlock_StructuralFailure(t *testing.T) {
	srv := httptest.NewServer(jsonrpcHandler(t, func(method string, params []json.RawMessage) (interface{}, *jsonrpcError) {
		return 12345, nil // not a block object
	}))
	defer srv.Close()

	reg := metrics.New()
	client, err := Dial(t.Context(), "ethereum", []string{srv.URL}, fastRetryOpts(), zap.NewNop(), reg)
	require.NoError(t, err)
	defer client.Close()

	block, err := client.GetBlock(t.Context(), 100)
	assert.Nil(t, block)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
}

// TestClient_RotatesEndpointOnFailure reproduces E2E scenario 2: the first
// endpoint always errors, the second always succeeds, and the client must
// rotate to it after exhausting C1's retries on the first.
func TestClient_RotatesEndpointOnFailure(t *testing.T) {
	var badCalls int32
	bad := httptest.NewServer(jsonrpcHandler(t, func(method string, params []json.RawMessage) (interface{}, *jsonrpcError) {
		atomic.AddInt32(&badCalls, 1)
		return nil, &jsonrpcError{Code: -32000, Message: "service unavailable"}
	}))
	defer bad.Close()

	good := httptest.NewServer(jsonrpcHandler(t, func(method string, params []json.RawMessage) (interface{}, *jsonrpcError) {
		return "0x64", nil
	}))
	defer good.Close()

	reg := metrics.New()
	opts := retry.Options{MaxAttempts: 3, BaseDelay: time.Millisecond, Exponential: false, Jitter: false}
	client, err := Dial(t.Context(), "ethereum", []string{bad.URL, good.URL}, opts, zap.NewNop(), reg)
	require.NoError(t, err)
	defer client.Close()

	n, err := client.GetBlockNumber(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), n)
	assert.Equal(t, int32(opts.MaxAttempts), atomic.LoadInt32(&badCalls))
}

// TestClient_SingleEndpointRotationIsNoop reproduces the boundary behavior
// in spec §8: with a single endpoint, rotation is a no-op and the error
// propagates cleanly once C1's retries are exhausted.
func TestClient_SingleEndpointRotationIsNoop(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(jsonrpcHandler(t, func(method string, params []json.RawMessage) (interface{}, *jsonrpcError) {
		atomic.AddInt32(&calls, 1)
		return nil, &jsonrpcError{Code: -32000, Message: "boom"}
	}))
	defer srv.Close()

	reg := metrics.New()
	opts := retry.Options{MaxAttempts: 3, BaseDelay: time.Millisecond, Exponential: false, Jitter: false}
	client, err := Dial(t.Context(), "ethereum", []string{srv.URL}, opts, zap.NewNop(), reg)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetBlockNumber(t.Context())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(opts.MaxAttempts), atomic.LoadInt32(&calls))
}
