// Package rpcclient implements the core's fetch/retry/failover layer (C2):
// get_block_number, get_block, and get_transaction_receipt, each wrapped by
// internal/retry (C1) and backed by endpoint rotation on failure.
//
// The transport is go-ethereum's low-level *rpc.Client rather than
// ethclient, because the spec's parser layer (C3) needs the literal wire
// JSON — hex strings and per-chain extension fields like l1BatchNumber —
// not the already-decoded types ethclient.Client returns.
package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/lgingerich/evm-indexer/internal/metrics"
	"github.com/lgingerich/evm-indexer/internal/record"
	"github.com/lgingerich/evm-indexer/internal/retry"
)

const (
	methodBlockNumber      = "eth_blockNumber"
	methodGetBlockByNumber = "eth_getBlockByNumber"
	methodGetTxReceipt     = "eth_getTransactionReceipt"
)

// Client is the RPC client (C2). It holds an ordered list of endpoints and
// a current-index cursor; the cursor is mutated only from the caller's
// goroutine (the indexer driver), matching the single-threaded concurrency
// model in spec §5.
type Client struct {
	chainName string
	dialers   []*gethrpc.Client
	idx       int

	retryOpts Options
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// Options configures the retry policy each RPC operation is wrapped with.
type Options = retry.Options

// Dial connects to every endpoint in urls (failing fast if any endpoint
// can't be dialed) and returns a Client positioned at the first one. urls
// must be non-empty; configuration validation (internal/config) is
// responsible for enforcing that before this is called.
func Dial(ctx context.Context, chainName string, urls []string, retryOpts Options, logger *zap.Logger, reg *metrics.Registry) (*Client, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("rpcclient: no endpoints configured for chain %q", chainName)
	}
	dialers := make([]*gethrpc.Client, 0, len(urls))
	for _, url := range urls {
		d, err := gethrpc.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("rpcclient: dial %s: %w", url, err)
		}
		dialers = append(dialers, d)
	}
	return &Client{
		chainName: chainName,
		dialers:   dialers,
		retryOpts: retryOpts,
		logger:    logger,
		metrics:   reg,
	}, nil
}

// Close releases every endpoint connection.
func (c *Client) Close() {
	for _, d := range c.dialers {
		d.Close()
	}
}

// GetBlockNumber returns the current endpoint's view of the chain head.
func (c *Client) GetBlockNumber(ctx context.Context) (uint64, error) {
	var hexNum string
	if err := c.callWithRotation(ctx, methodBlockNumber, &hexNum); err != nil {
		return 0, err
	}
	return hexutil.DecodeUint64(hexNum)
}

// GetBlock returns the block at number, including full transaction objects.
// A missing block returns an error wrapping ErrNotFound.
func (c *Client) GetBlock(ctx context.Context, number uint64) (*record.RawBlock, error) {
	var raw json.RawMessage
	if err := c.callWithRotation(ctx, methodGetBlockByNumber, &raw, hexutil.EncodeUint64(number), true); err != nil {
		return nil, err
	}
	if isJSONNull(raw) {
		return nil, fmt.Errorf("rpcclient: block %d: %w", number, ErrNotFound)
	}
	var block record.RawBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("rpcclient: decode block %d: %w: %v", number, ErrStructural, err)
	}
	return &block, nil
}

// GetTransactionReceipt returns the receipt for txHash, including embedded
// logs. A missing receipt returns an error wrapping ErrNotFound.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*record.RawReceipt, error) {
	var raw json.RawMessage
	if err := c.callWithRotation(ctx, methodGetTxReceipt, &raw, txHash); err != nil {
		return nil, err
	}
	if isJSONNull(raw) {
		return nil, fmt.Errorf("rpcclient: receipt %s: %w", txHash, ErrNotFound)
	}
	var receipt record.RawReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("rpcclient: decode receipt %s: %w: %v", txHash, ErrStructural, err)
	}
	return &receipt, nil
}

// callWithRotation wraps a single logical RPC call with C1's retry policy
// against the current endpoint; on exhaustion, it advances the endpoint
// index once (a no-op if there's only one endpoint) and retries the same
// logical operation once more against the new endpoint (spec §4.2).
func (c *Client) callWithRotation(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	op := func(ctx context.Context) error {
		return c.attemptOnce(ctx, method, result, params...)
	}
	notify := func(err error, attempt int, delay time.Duration) {
		c.logger.Warn("rpc attempt failed, backing off",
			zap.String("method", method), zap.Int("attempt", attempt),
			zap.Duration("delay", delay), zap.Error(err))
	}

	err := retry.Do(ctx, c.retryOpts, op, notify)
	if err == nil {
		return nil
	}
	if len(c.dialers) <= 1 {
		return err
	}

	from := c.idx
	c.idx = (c.idx + 1) % len(c.dialers)
	c.logger.Warn("rotating rpc endpoint after exhausting retries",
		zap.String("method", method), zap.Int("from", from), zap.Int("to", c.idx), zap.Error(err))

	return retry.Do(ctx, c.retryOpts, op, notify)
}

// attemptOnce issues one RPC call against the current endpoint and records
// its latency/error, tagged by chain and method (spec §4.2, §6).
func (c *Client) attemptOnce(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	start := time.Now()
	err := c.dialers[c.idx].CallContext(ctx, result, method, params...)
	c.metrics.ObserveRPC(c.chainName, method, time.Since(start), err)
	return err
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
