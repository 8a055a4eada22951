// Package warehouse implements internal/storage.Manager against Postgres
// via pgx/v5, day-partitioned on block_date, standing in for the source's
// BigQuery backend — no example repo in the pool carries a BigQuery
// client, while pgx/v5 is a direct dependency of
// other_examples/manifests/hieutrtr-go-blockchain-explorer (see DESIGN.md).
package warehouse

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lgingerich/evm-indexer/internal/storage"
)

// maxBatchRows caps each COPY FROM call at spec §4.4/§6's sub-batch size.
const maxBatchRows = 10_000

type Manager struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Manager, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("warehouse: ping: %w", err)
	}
	return &Manager{pool: pool}, nil
}

func (m *Manager) Close() error {
	m.pool.Close()
	return nil
}

// CreateDataset is a no-op: the dataset-to-database/schema mapping is
// provisioned out of band; CreateTable is the real unit of idempotent
// setup for this backend.
func (m *Manager) CreateDataset(ctx context.Context, dataset storage.Dataset) error {
	return nil
}

func (m *Manager) CreateTable(ctx context.Context, dataset storage.Dataset, schema storage.Schema) error {
	if !hasColumn(schema, "block_date") {
		return fmt.Errorf("warehouse: schema for %s has no block_date column to partition on", dataset)
	}
	cols := make([]string, 0, len(schema))
	for _, c := range schema {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(c.Name), pgColumnType(c.Type)))
	}
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s) PARTITION BY RANGE (block_date)",
		quoteIdent(string(dataset)), strings.Join(cols, ", "))
	if _, err := m.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("warehouse: create table %s: %w", dataset, err)
	}
	return nil
}

func (m *Manager) LoadTable(ctx context.Context, dataset storage.Dataset, schema storage.Schema, records []interface{}, policy storage.LoadPolicy, startBlock, endBlock uint64) error {
	table := quoteIdent(string(dataset))

	switch policy {
	case storage.PolicyFail:
		var count int64
		row := m.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE block_number BETWEEN $1 AND $2", table), startBlock, endBlock)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("warehouse: check existing rows in %s: %w", dataset, err)
		}
		if count > 0 {
			return fmt.Errorf("warehouse: %w: %s [%d,%d]", storage.ErrAlreadyExists, dataset, startBlock, endBlock)
		}
	case storage.PolicyReplace:
		if _, err := m.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE block_number BETWEEN $1 AND $2", table), startBlock, endBlock); err != nil {
			return fmt.Errorf("warehouse: clear existing rows in %s: %w", dataset, err)
		}
	case storage.PolicyAppend:
	default:
		return fmt.Errorf("warehouse: %w: %q", storage.ErrUnrecognizedPolicy, policy)
	}

	if err := m.ensurePartitions(ctx, dataset, schema, records); err != nil {
		return err
	}

	names := schema.ColumnNames()
	for start := 0; start < len(records); start += maxBatchRows {
		end := start + maxBatchRows
		if end > len(records) {
			end = len(records)
		}
		src, err := newCopySource(records[start:end], schema)
		if err != nil {
			return fmt.Errorf("warehouse: build batch for %s: %w", dataset, err)
		}
		if _, err := m.pool.CopyFrom(ctx, pgx.Identifier{string(dataset)}, names, src); err != nil {
			return fmt.Errorf("warehouse: copy into %s: %w", dataset, err)
		}
	}
	return nil
}

// GetLastProcessedBlock implements the minimum-of-maxima watermark policy
// (spec §4.4/§9). ok is false when any active dataset's table doesn't exist
// yet or has no rows, since a fresh table and a table whose only row is
// block 0 would otherwise both surface as a maximum of 0.
func (m *Manager) GetLastProcessedBlock(ctx context.Context, active []storage.Dataset) (uint64, bool, error) {
	if len(active) == 0 {
		return 0, false, nil
	}
	min := uint64(0)
	for i, ds := range active {
		max, hasRows, err := m.maxBlockNumber(ctx, ds)
		if err != nil {
			return 0, false, err
		}
		if !hasRows {
			return 0, false, nil
		}
		if i == 0 || max < min {
			min = max
		}
	}
	return min, true, nil
}

func (m *Manager) maxBlockNumber(ctx context.Context, dataset storage.Dataset) (uint64, bool, error) {
	var max *int64
	row := m.pool.QueryRow(ctx, fmt.Sprintf("SELECT MAX(block_number) FROM %s", quoteIdent(string(dataset))))
	if err := row.Scan(&max); err != nil {
		if isUndefinedTable(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("warehouse: max block_number for %s: %w", dataset, err)
	}
	if max == nil {
		return 0, false, nil
	}
	return uint64(*max), true, nil
}

func (m *Manager) ensurePartitions(ctx context.Context, dataset storage.Dataset, schema storage.Schema, records []interface{}) error {
	idx := columnIndex(schema, "block_date")
	if idx < 0 {
		return fmt.Errorf("warehouse: schema for %s has no block_date column", dataset)
	}
	seen := map[string]bool{}
	for _, rec := range records {
		values, err := storage.RowValues(rec, schema)
		if err != nil {
			return fmt.Errorf("warehouse: extract block_date for %s: %w", dataset, err)
		}
		date, ok := values[idx].(time.Time)
		if !ok {
			return fmt.Errorf("warehouse: block_date column for %s is not a time.Time", dataset)
		}
		day := date.UTC().Format("2006-01-02")
		if seen[day] {
			continue
		}
		seen[day] = true
		if err := m.ensureDayPartition(ctx, dataset, date.UTC()); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) ensureDayPartition(ctx context.Context, dataset storage.Dataset, day time.Time) error {
	next := day.AddDate(0, 0, 1)
	partName := fmt.Sprintf("%s_%s", dataset, day.Format("20060102"))
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')",
		quoteIdent(partName), quoteIdent(string(dataset)), day.Format("2006-01-02"), next.Format("2006-01-02"))
	if _, err := m.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("warehouse: create partition %s: %w", partName, err)
	}
	return nil
}

// copySource adapts []interface{} records into pgx.CopyFromSource.
type copySource struct {
	records []interface{}
	schema  storage.Schema
	pos     int
}

func newCopySource(records []interface{}, schema storage.Schema) (*copySource, error) {
	return &copySource{records: records, schema: schema, pos: -1}, nil
}

func (s *copySource) Next() bool {
	s.pos++
	return s.pos < len(s.records)
}

func (s *copySource) Values() ([]interface{}, error) {
	raw, err := storage.RowValues(s.records[s.pos], s.schema)
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, len(raw))
	for i, v := range raw {
		mv, err := storage.MarshalColumnValue(v)
		if err != nil {
			return nil, err
		}
		values[i] = mv
	}
	return values, nil
}

func (s *copySource) Err() error { return nil }

func hasColumn(schema storage.Schema, name string) bool {
	return columnIndex(schema, name) >= 0
}

func columnIndex(schema storage.Schema, name string) int {
	for i, c := range schema {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func isUndefinedTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// pgColumnType maps a Go field type to a Postgres column type. Composite
// and decimal fields are pre-marshaled to text by MarshalColumnValue
// before a COPY, so their declared column type is TEXT. time.Time fields
// are declared TIMESTAMPTZ, although MarshalColumnValue also sends them
// as RFC 3339 text.
func pgColumnType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case reflect.TypeOf(time.Time{}):
		return "TIMESTAMPTZ"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "BIGINT"
	default:
		return "TEXT"
	}
}
