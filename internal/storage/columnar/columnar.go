// Package columnar implements internal/storage.Manager as a file tree of
// block-range-partitioned columnar files, one per (dataset, start_block,
// end_block), using github.com/parquet-go/parquet-go — an ecosystem
// library outside the example pool (see DESIGN.md) since no example repo
// in the corpus writes a columnar file format.
package columnar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/lgingerich/evm-indexer/internal/storage"
)

type Manager struct {
	chainName string
	dataDir   string
}

// Open roots a columnar Manager at <dataDir>/<chainName>, creating the
// directory if it doesn't exist.
func Open(dataDir, chainName string) (*Manager, error) {
	root := filepath.Join(dataDir, chainName)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("columnar: create %s: %w", root, err)
	}
	return &Manager{chainName: chainName, dataDir: dataDir}, nil
}

func (m *Manager) Close() error { return nil }

func (m *Manager) datasetDir(dataset storage.Dataset) string {
	return filepath.Join(m.dataDir, m.chainName, string(dataset))
}

func (m *Manager) CreateDataset(ctx context.Context, dataset storage.Dataset) error {
	if err := os.MkdirAll(m.datasetDir(dataset), 0o755); err != nil {
		return fmt.Errorf("columnar: create dataset dir %s: %w", dataset, err)
	}
	return nil
}

// CreateTable is a no-op beyond ensuring the dataset directory exists:
// this backend carries no separate table metadata, each LoadTable call
// writes a self-describing file.
func (m *Manager) CreateTable(ctx context.Context, dataset storage.Dataset, schema storage.Schema) error {
	return m.CreateDataset(ctx, dataset)
}

func (m *Manager) filePath(dataset storage.Dataset, startBlock, endBlock uint64) string {
	name := fmt.Sprintf("%s_%d_%d.columnar", dataset, startBlock, endBlock)
	return filepath.Join(m.datasetDir(dataset), name)
}

// LoadTable writes one file per call, named by its start and end block.
// PolicyFail refuses to overwrite an existing file for the same range;
// PolicyReplace and PolicyAppend both replace a file with the same start
// and end block, so PolicyAppend adds a file only for a range not yet
// written and does not keep earlier rows of an identical range. Files for
// other ranges are never touched (duplicate detection across files is
// left to the reader, per spec §4.4's watermark note).
func (m *Manager) LoadTable(ctx context.Context, dataset storage.Dataset, schema storage.Schema, records []interface{}, policy storage.LoadPolicy, startBlock, endBlock uint64) error {
	if err := m.CreateDataset(ctx, dataset); err != nil {
		return err
	}
	path := m.filePath(dataset, startBlock, endBlock)

	switch policy {
	case storage.PolicyFail:
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("columnar: %w: %s", storage.ErrAlreadyExists, path)
		}
	case storage.PolicyReplace, storage.PolicyAppend:
		// Both write path below, replacing any file already there for the
		// same start and end block.
	default:
		return fmt.Errorf("columnar: %w: %q", storage.ErrUnrecognizedPolicy, policy)
	}

	pqSchema, err := buildParquetSchema(dataset, schema)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("columnar: create %s: %w", tmp, err)
	}
	writer := parquet.NewGenericWriter[map[string]interface{}](f, pqSchema)

	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		values, err := storage.RowValues(rec, schema)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("columnar: extract row for %s: %w", dataset, err)
		}
		row := make(map[string]interface{}, len(schema))
		for i, col := range schema {
			mv, err := columnarValue(values[i])
			if err != nil {
				f.Close()
				os.Remove(tmp)
				return fmt.Errorf("columnar: marshal column %s: %w", col.Name, err)
			}
			row[col.Name] = mv
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("columnar: write rows to %s: %w", tmp, err)
		}
	}
	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("columnar: close writer for %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("columnar: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("columnar: finalize %s: %w", path, err)
	}
	return nil
}

// GetLastProcessedBlock derives each active dataset's maximum persisted
// block number from its filenames' end_block suffix, then returns the
// minimum across datasets (spec §4.4/§9). ok is false when any active
// dataset has no files yet, since a fresh dataset directory and a dataset
// whose only file covers up to block 0 would otherwise be indistinguishable.
func (m *Manager) GetLastProcessedBlock(ctx context.Context, active []storage.Dataset) (uint64, bool, error) {
	if len(active) == 0 {
		return 0, false, nil
	}
	min := uint64(0)
	for i, ds := range active {
		max, hasFiles, err := m.maxEndBlock(ds)
		if err != nil {
			return 0, false, err
		}
		if !hasFiles {
			return 0, false, nil
		}
		if i == 0 || max < min {
			min = max
		}
	}
	return min, true, nil
}

func (m *Manager) maxEndBlock(dataset storage.Dataset) (uint64, bool, error) {
	entries, err := os.ReadDir(m.datasetDir(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("columnar: list %s: %w", dataset, err)
	}
	var max uint64
	var found bool
	pattern := string(dataset) + "_%d_%d.columnar"
	for _, e := range entries {
		var start, end uint64
		if _, err := fmt.Sscanf(e.Name(), pattern, &start, &end); err != nil {
			continue
		}
		found = true
		if end > max {
			max = end
		}
	}
	return max, found, nil
}

func columnarValue(v interface{}) (interface{}, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	}
	return storage.MarshalColumnValue(v)
}

// buildParquetSchema derives a flat, all-optional parquet group schema
// from a storage.Schema: every column becomes a nullable leaf, string-typed
// for anything that isn't a plain integer or boolean, since composite and
// decimal/time values are pre-marshaled to their string form before
// writing (see columnarValue).
func buildParquetSchema(dataset storage.Dataset, schema storage.Schema) (*parquet.Schema, error) {
	group := parquet.Group{}
	for _, col := range schema {
		group[col.Name] = parquet.Optional(parquet.Leaf(leafType(col.Type)))
	}
	return parquet.NewSchema(string(dataset), group), nil
}

func leafType(t reflect.Type) parquet.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return parquet.BooleanType
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return parquet.Int64Type
	default:
		return parquet.ByteArrayType
	}
}
