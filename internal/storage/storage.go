// Package storage defines the backend-agnostic storage contract (C4):
// dataset/table lifecycle, batched writes, and the watermark query the
// indexer driver resumes from. internal/storage/sqlitestore,
// internal/storage/warehouse, and internal/storage/columnar each implement
// Manager against a different backend.
package storage

import (
	"context"

	"github.com/lgingerich/evm-indexer/internal/config"
)

// Dataset is the {blocks, transactions, logs} family a backend persists
// independently. Reuses config.Dataset so the configuration layer and the
// storage layer never drift on the set of valid dataset names.
type Dataset = config.Dataset

const (
	DatasetBlocks       = config.DatasetBlocks
	DatasetTransactions = config.DatasetTransactions
	DatasetLogs         = config.DatasetLogs
)

// LoadPolicy governs how LoadTable treats rows already present in the
// target block range.
type LoadPolicy string

const (
	PolicyFail    LoadPolicy = "fail"
	PolicyReplace LoadPolicy = "replace"
	PolicyAppend  LoadPolicy = "append"
)

// Manager is the storage contract every backend implements (spec §4.4).
// Callers pass the records for one dataset as a plain []interface{} of
// record.Block / record.Transaction / record.Log values; the schema
// carried alongside tells each backend how to lay the fields out.
type Manager interface {
	// CreateDataset idempotently creates the dataset namespace (directory,
	// schema, or no-op, depending on the backend).
	CreateDataset(ctx context.Context, dataset Dataset) error

	// CreateTable idempotently creates the dataset's table/file layout for
	// the given schema, partitioning by block_date where the backend
	// supports it.
	CreateTable(ctx context.Context, dataset Dataset, schema Schema) error

	// LoadTable persists records (matching schema) into dataset under
	// policy, covering block numbers [startBlock, endBlock]. It returns
	// only once the write is durable.
	LoadTable(ctx context.Context, dataset Dataset, schema Schema, records []interface{}, policy LoadPolicy, startBlock, endBlock uint64) error

	// GetLastProcessedBlock returns the minimum, across active, of each
	// dataset's maximum persisted block_number (the minimum-of-maxima
	// watermark policy, spec §4.4/§9). ok is false when at least one
	// active dataset has no rows yet — this is the only way to
	// distinguish "nothing has been durably persisted" from "block 0 was
	// the last block persisted", since both would otherwise collapse to
	// the same uint64 zero value. Callers must treat a false ok as "start
	// from genesis", not as "block 0 is the watermark".
	GetLastProcessedBlock(ctx context.Context, active []Dataset) (block uint64, ok bool, err error)

	Close() error
}
