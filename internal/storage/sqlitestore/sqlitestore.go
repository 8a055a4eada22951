// Package sqlitestore implements internal/storage.Manager against a local
// SQLite file, grounded on the teacher's own sqlite-backed indexer
// (geth-17-indexer): database/sql plus modernc.org/sqlite's pure-Go driver,
// no cgo. It's the backend for local/dev runs and the one internal/storage
// exercises with the full Manager contract in tests, since it needs no
// external service.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lgingerich/evm-indexer/internal/storage"
)

type Manager struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database file at path. A
// single file holds every dataset's table for one chain.
func Open(path string) (*Manager, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping %s: %w", path, err)
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error { return m.db.Close() }

// CreateDataset is a no-op: SQLite has no namespace above the table level,
// and CreateTable below creates the table itself idempotently.
func (m *Manager) CreateDataset(ctx context.Context, dataset storage.Dataset) error {
	return nil
}

func (m *Manager) CreateTable(ctx context.Context, dataset storage.Dataset, schema storage.Schema) error {
	cols := make([]string, 0, len(schema))
	for _, c := range schema {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(c.Name), sqlColumnType(c.Type)))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(string(dataset)), strings.Join(cols, ", "))
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlitestore: create table %s: %w", dataset, err)
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (block_number)",
		quoteIdent(string(dataset)+"_block_number_idx"), quoteIdent(string(dataset)))
	if _, err := m.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("sqlitestore: create index on %s: %w", dataset, err)
	}
	return nil
}

func (m *Manager) LoadTable(ctx context.Context, dataset storage.Dataset, schema storage.Schema, records []interface{}, policy storage.LoadPolicy, startBlock, endBlock uint64) error {
	table := quoteIdent(string(dataset))

	switch policy {
	case storage.PolicyFail:
		var count int
		row := m.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE block_number BETWEEN ? AND ?", table), startBlock, endBlock)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("sqlitestore: check existing rows in %s: %w", dataset, err)
		}
		if count > 0 {
			return fmt.Errorf("sqlitestore: %w: %s [%d,%d]", storage.ErrAlreadyExists, dataset, startBlock, endBlock)
		}
	case storage.PolicyReplace:
		if _, err := m.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE block_number BETWEEN ? AND ?", table), startBlock, endBlock); err != nil {
			return fmt.Errorf("sqlitestore: clear existing rows in %s: %w", dataset, err)
		}
	case storage.PolicyAppend:
		// no precondition; duplicate rows are the caller's concern per spec §4.4.
	default:
		return fmt.Errorf("sqlitestore: %w: %q", storage.ErrUnrecognizedPolicy, policy)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(schema)), ",")
	names := make([]string, len(schema))
	for i, c := range schema {
		names[i] = quoteIdent(c.Name)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("sqlitestore: prepare insert into %s: %w", dataset, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		rawValues, err := storage.RowValues(rec, schema)
		if err != nil {
			return fmt.Errorf("sqlitestore: extract row values for %s: %w", dataset, err)
		}
		args := make([]interface{}, len(rawValues))
		for i, v := range rawValues {
			mv, err := storage.MarshalColumnValue(v)
			if err != nil {
				return fmt.Errorf("sqlitestore: marshal column %s: %w", schema[i].Name, err)
			}
			args[i] = mv
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlitestore: insert into %s: %w", dataset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit %s: %w", dataset, err)
	}
	return nil
}

// GetLastProcessedBlock implements the minimum-of-maxima watermark policy
// (spec §4.4/§9): a dataset whose table doesn't exist yet, or has no rows,
// makes the whole watermark unresolved (ok=false) rather than silently
// contributing 0 to the minimum, since 0 is also a legitimate block number.
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
	var max sql.NullInt64
	row := m.db.QueryRowContext(ctx, fmt.Sprintf("SELECT MAX(block_number) FROM %s", quoteIdent(string(dataset))))
	if err := row.Scan(&max); err != nil {
		if isNoSuchTable(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlitestore: max block_number for %s: %w", dataset, err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return uint64(max.Int64), true, nil
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlColumnType maps a Go field type to a SQLite column affinity. SQLite's
// type affinity is advisory, but declaring it documents intent and matches
// the teacher's own CREATE TABLE style.
func sqlColumnType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case reflect.TypeOf(time.Time{}):
		return "TEXT"
	}
	switch t.Kind() {
	case reflect.String:
		return "TEXT"
	case reflect.Bool:
		return "INTEGER"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
