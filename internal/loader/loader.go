// Package loader materializes raw literature records from tabular sources.
// DuckDB does the heavy lifting: CSV and Parquet files load with automatic
// schema detection and arbitrary column sets survive as heterogeneous
// records.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/duralab/frpdur/internal/record"
)

// Loader reads raw records through an in-memory DuckDB instance.
type Loader struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a loader backed by an in-memory DuckDB database.
func Open(logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return &Loader{db: db, logger: logger}, nil
}

// Close closes the DuckDB connection.
func (l *Loader) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// LoadFile reads every row of a CSV or Parquet file into records. Schema
// detection is automatic; all columns come through, whatever their names.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]record.Record, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	var source string
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".parquet":
		source = fmt.Sprintf("read_parquet('%s')", escapePath(absPath))
	default:
		source = fmt.Sprintf("read_csv_auto('%s', header=true, all_varchar=true)", escapePath(absPath))
	}

	records, err := l.Query(ctx, "SELECT * FROM "+source)
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded raw records", "path", path, "rows", len(records))
	return records, nil
}

// Query runs an arbitrary SELECT and converts the result set to records.
// This is the escape hatch for sources that need filtering or joins before
// derivation.
func (l *Loader) Query(ctx context.Context, query string) ([]record.Record, error) {
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []record.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(out), err)
		}

		r := make(record.Record, len(cols))
		for i, col := range cols {
			r[col] = record.FromAny(values[i])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// escapePath doubles single quotes so paths survive SQL string literals.
func escapePath(p string) string {
	return strings.ReplaceAll(p, "'", "''")
}
