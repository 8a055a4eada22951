// Package indexer implements the indexing loop (C5): watermark -> fetch ->
// gate -> parse -> buffer -> persist -> advance. It is the single
// cooperative consumer of C2 (fetch/retry/failover), C3 (chain parsers),
// and C4 (storage), sequencing blocks in strictly monotonic order.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lgingerich/evm-indexer/internal/chain"
	"github.com/lgingerich/evm-indexer/internal/metrics"
	"github.com/lgingerich/evm-indexer/internal/parser"
	"github.com/lgingerich/evm-indexer/internal/record"
	"github.com/lgingerich/evm-indexer/internal/rpcclient"
	"github.com/lgingerich/evm-indexer/internal/storage"
)

// tipBackoffDelay and gatingRetryDelay are both the spec's fixed 1s
// suspension (§4.5); kept as distinct names since they gate conceptually
// different conditions.
const (
	tipBackoffDelay  = time.Second
	gatingRetryDelay = time.Second
)

// Client is the subset of *rpcclient.Client the driver calls, accepted as
// an interface so tests can substitute a fake without a live endpoint.
type Client interface {
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, number uint64) (*record.RawBlock, error)
	GetTransactionReceipt(ctx context.Context, txHash string) (*record.RawReceipt, error)
}

// Driver is the C5 indexing loop for a single chain.
type Driver struct {
	client   Client
	storage  storage.Manager
	chain    chain.Type
	family   chain.Family
	name     string
	datasets []storage.Dataset

	batchSize    int
	tipBuffer    uint64
	tipHardLimit uint64

	logger  *zap.Logger
	metrics *metrics.Registry

	// sleep is injected so tests can run the loop without real delays,
	// while still observing cancellation.
	sleep func(ctx context.Context, d time.Duration) error

	blockSchema storage.Schema
	txSchema    storage.Schema
	logSchema   storage.Schema
}

// Config carries the C5 tunables (spec §4.5's batch_size/tip_buffer/
// tip_hard_limit), already defaulted by internal/config.
type Config struct {
	ChainType    chain.Type
	ChainName    string
	Datasets     []storage.Dataset
	BatchSize    int
	TipBuffer    int
	TipHardLimit int
}

// New builds a Driver. It derives each dataset's storage.Schema once from
// the chain family's concrete record types, so CreateTable/LoadTable never
// need to re-derive it per batch.
func New(client Client, mgr storage.Manager, cfg Config, logger *zap.Logger, reg *metrics.Registry) (*Driver, error) {
	family := chain.FamilyOf(cfg.ChainType)

	blockSchema, err := storage.DeriveSchema(record.EmptyBlock(family))
	if err != nil {
		return nil, fmt.Errorf("indexer: derive block schema: %w", err)
	}
	txSchema, err := storage.DeriveSchema(record.EmptyTransaction(family))
	if err != nil {
		return nil, fmt.Errorf("indexer: derive transaction schema: %w", err)
	}
	logSchema, err := storage.DeriveSchema(record.EmptyLog(family))
	if err != nil {
		return nil, fmt.Errorf("indexer: derive log schema: %w", err)
	}

	return &Driver{
		client:       client,
		storage:      mgr,
		chain:        cfg.ChainType,
		family:       family,
		name:         cfg.ChainName,
		datasets:     cfg.Datasets,
		batchSize:    cfg.BatchSize,
		tipBuffer:    uint64(cfg.TipBuffer),
		tipHardLimit: uint64(cfg.TipHardLimit),
		logger:       logger,
		metrics:      reg,
		sleep:        sleepContext,
		blockSchema:  blockSchema,
		txSchema:     txSchema,
		logSchema:    logSchema,
	}, nil
}

// Run drives the indexing loop until ctx is cancelled or an unrecoverable
// error occurs. Per spec §7, a returned error is meant to terminate the
// process (exit code 1); a supervisor restarts it and the next run resumes
// from the storage watermark. Storage errors encountered while persisting
// a batch are the one error kind excluded from this: they are handled
// in-loop (see persist's call site below) and never reach this return.
func (d *Driver) Run(ctx context.Context) error {
	d.metrics.InitChain(d.name)

	if err := d.ensureTables(ctx); err != nil {
		return err
	}

	watermark, ok, err := d.storage.GetLastProcessedBlock(ctx, d.datasets)
	if err != nil {
		return fmt.Errorf("indexer: get last processed block: %w", err)
	}
	n := uint64(0)
	if ok {
		n = watermark + 1
	}

	var blocksBuf, txBuf, logsBuf []interface{}
	latestProcessed := uint64(0)
	if ok {
		latestProcessed = watermark
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tip, err := d.client.GetBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("indexer: get chain tip: %w", err)
		}
		d.metrics.ChainTip.WithLabelValues(d.name).Set(float64(tip))
		d.metrics.ChainTipLag.WithLabelValues(d.name).Set(tipLag(tip, latestProcessed))

		if d.inBackoffRegion(n, tip) {
			if err := d.sleep(ctx, tipBackoffDelay); err != nil {
				return err
			}
			continue
		}

		start := time.Now()

		raw, err := d.client.GetBlock(ctx, n)
		if err != nil {
			if errors.Is(err, rpcclient.ErrNotFound) {
				d.logger.Warn("block not found, advancing", zap.Uint64("block_number", n))
				n++
				continue
			}
			if errors.Is(err, rpcclient.ErrStructural) {
				d.logger.Error("structural block decode failure, abandoning block",
					zap.Uint64("block_number", n), zap.Error(err))
				n++
				continue
			}
			return fmt.Errorf("indexer: fetch block %d: %w", n, err)
		}

		if chain.RequiresL1Anchor(d.chain) && !isL1Anchored(d.family, raw) {
			d.logger.Debug("block not yet L1-anchored, waiting", zap.Uint64("block_number", n))
			if err := d.sleep(ctx, gatingRetryDelay); err != nil {
				return err
			}
			continue
		}

		receipts, err := d.fetchReceipts(ctx, raw)
		if err != nil {
			if errors.Is(err, rpcclient.ErrStructural) {
				d.logger.Error("structural receipt decode failure, abandoning block",
					zap.Uint64("block_number", n), zap.Error(err))
				n++
				continue
			}
			return err
		}

		result, err := parser.Parse(d.chain, raw, receipts)
		if err != nil {
			if errors.Is(err, parser.ErrStructural) {
				d.logger.Error("structural parse failure, abandoning block",
					zap.Uint64("block_number", n), zap.Error(err))
				n++
				continue
			}
			return fmt.Errorf("indexer: parse block %d: %w", n, err)
		}

		blocksBuf = append(blocksBuf, result.Block)
		for _, tx := range result.Transactions {
			txBuf = append(txBuf, tx)
		}
		for _, lg := range result.Logs {
			logsBuf = append(logsBuf, lg)
		}

		d.metrics.LatestProcessSec.WithLabelValues(d.name).Set(time.Since(start).Seconds())

		if len(blocksBuf) >= d.batchSize {
			persistedEnd, err := d.persist(ctx, blocksBuf, txBuf, logsBuf)
			if err != nil {
				// Spec §7 error kind 4: storage errors do not terminate the
				// process. Buffers are left untouched and n is not advanced
				// (we're above the n++ below), so the next iteration
				// re-fetches block n, appends it to the buffers again, and
				// retries persistence over the same block range instead of
				// unwinding Run.
				d.logger.Error("persist failed, buffers retained for retry", zap.Error(err))
				continue
			}
			d.metrics.BlocksProcessed.WithLabelValues(d.name).Add(float64(len(blocksBuf)))
			latestProcessed = persistedEnd
			d.metrics.LatestProcessed.WithLabelValues(d.name).Set(float64(latestProcessed))
			blocksBuf, txBuf, logsBuf = nil, nil, nil
		}

		n++
	}
}

// ensureTables idempotently creates every active dataset's table/file
// layout before the loop starts, using each dataset's precomputed schema.
func (d *Driver) ensureTables(ctx context.Context) error {
	for _, ds := range d.datasets {
		schema := d.schemaFor(ds)
		if err := d.storage.CreateDataset(ctx, ds); err != nil {
			return fmt.Errorf("indexer: create dataset %s: %w", ds, err)
		}
		if err := d.storage.CreateTable(ctx, ds, schema); err != nil {
			return fmt.Errorf("indexer: create table %s: %w", ds, err)
		}
	}
	return nil
}

func (d *Driver) schemaFor(ds storage.Dataset) storage.Schema {
	switch ds {
	case storage.DatasetBlocks:
		return d.blockSchema
	case storage.DatasetTransactions:
		return d.txSchema
	case storage.DatasetLogs:
		return d.logSchema
	default:
		panic(fmt.Sprintf("indexer: unrecognized dataset %q", ds))
	}
}

// fetchReceipts fetches one receipt per transaction hash in raw, skipping
// (and logging) any transaction whose receipt is not found (spec §4.5
// step 4, §7 error kind 2).
func (d *Driver) fetchReceipts(ctx context.Context, raw *record.RawBlock) (map[string]*record.RawReceipt, error) {
	receipts := make(map[string]*record.RawReceipt, len(raw.Transactions))
	for i := range raw.Transactions {
		hash := raw.Transactions[i].Hash
		receipt, err := d.client.GetTransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, rpcclient.ErrNotFound) {
				d.logger.Warn("receipt not found, skipping transaction", zap.String("tx_hash", hash))
				continue
			}
			return nil, fmt.Errorf("indexer: fetch receipt %s: %w", hash, err)
		}
		receipts[parser.NormalizeHash(hash)] = receipt
	}
	return receipts, nil
}

// persist writes the three buffers to every active dataset under
// PolicyAppend, sequenced blocks -> transactions -> logs, stopping at the
// first failure without writing later datasets (spec §5's failure
// isolation). It returns the batch's max block_number on success.
func (d *Driver) persist(ctx context.Context, blocks, txs, logs []interface{}) (uint64, error) {
	start, end := blockRange(blocks)

	batches := []struct {
		dataset storage.Dataset
		schema  storage.Schema
		records []interface{}
	}{
		{storage.DatasetBlocks, d.blockSchema, blocks},
		{storage.DatasetTransactions, d.txSchema, txs},
		{storage.DatasetLogs, d.logSchema, logs},
	}

	for _, b := range batches {
		if !d.isActive(b.dataset) {
			continue
		}
		if err := d.storage.LoadTable(ctx, b.dataset, b.schema, b.records, storage.PolicyAppend, start, end); err != nil {
			return 0, fmt.Errorf("load %s: %w", b.dataset, err)
		}
	}
	return end, nil
}

func (d *Driver) isActive(ds storage.Dataset) bool {
	for _, active := range d.datasets {
		if active == ds {
			return true
		}
	}
	return false
}

// inBackoffRegion implements spec §4.5 step 1: N > T - H - buf. Computed
// so it never underflows when T < H + buf (spec §8's genesis boundary
// behavior) — in that case the margin hasn't been reached yet and the
// driver is never made to wait for it.
func (d *Driver) inBackoffRegion(n, tip uint64) bool {
	margin := d.tipHardLimit + d.tipBuffer
	if tip < margin {
		return false
	}
	return n > tip-margin
}

// isL1Anchored reports whether raw carries the L1 commitment fields its
// family requires before the block is eligible for persistence (spec
// §4.5 step 3).
func isL1Anchored(f chain.Family, raw *record.RawBlock) bool {
	switch f {
	case chain.FamilyZKsync:
		return raw.L1BatchNumber != nil && raw.L1BatchTimestamp != nil
	case chain.FamilyArbitrum:
		return raw.L1BlockNumber != nil
	default:
		return true
	}
}

// blockRange returns [min(block_number), max(block_number)] across blocks.
// Returns (0, 0) for an empty slice. Run only calls persist once
// len(blocksBuf) >= d.batchSize, and internal/config replaces an unset
// batch size with 100.
func blockRange(blocks []interface{}) (uint64, uint64) {
	var start, end uint64
	for i, b := range blocks {
		num := b.(record.Block).GetBlockNumber()
		if i == 0 || num < start {
			start = num
		}
		if i == 0 || num > end {
			end = num
		}
	}
	return start, end
}

// tipLag reports tip minus latestProcessed, floored at 0 so a tip below
// latestProcessed doesn't underflow the unsigned subtraction. On a fresh
// run latestProcessed is 0 until the first batch persists, so the lag
// reported until then is the whole tip.
func tipLag(tip, latestProcessed uint64) float64 {
	if tip < latestProcessed {
		return 0
	}
	return float64(tip - latestProcessed)
}

// sleepContext sleeps for d or returns ctx.Err() if ctx is cancelled
// first, satisfying spec §5's cancellation requirement that a suspension
// point abort cleanly rather than complete a stale sleep.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
