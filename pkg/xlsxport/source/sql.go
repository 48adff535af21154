package source

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLSource streams the rows of one query result as map records.
type SQLSource struct {
	rows *sql.Rows
	cols []string
}

// FromRows wraps an open result set. The source owns the rows and closes
// them when the stream ends or fails.
func FromRows(rows *sql.Rows) (*SQLSource, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading result columns: %w", err)
	}
	return &SQLSource{rows: rows, cols: cols}, nil
}

// Query runs a query and wraps its result set.
func Query(ctx context.Context, db *sql.DB, query string, args ...interface{}) (*SQLSource, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running export query: %w", err)
	}
	return FromRows(rows)
}

// Columns returns the result set's column names in query order.
func (s *SQLSource) Columns() []string { return s.cols }

// Next advances to the next row, yielding it as a map record.
func (s *SQLSource) Next(ctx context.Context) (interface{}, bool, error) {
	if !s.rows.Next() {
		err := s.rows.Err()
		s.rows.Close()
		if err != nil {
			return nil, false, fmt.Errorf("scanning export query: %w", err)
		}
		return nil, false, nil
	}

	vals := make([]interface{}, len(s.cols))
	ptrs := make([]interface{}, len(s.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		s.rows.Close()
		return nil, false, fmt.Errorf("scanning export query: %w", err)
	}

	rec := make(map[string]interface{}, len(s.cols))
	for i, col := range s.cols {
		rec[col] = normalizeSQLValue(vals[i])
	}
	return rec, true, nil
}

// normalizeSQLValue unwraps driver types the coercer should see as plain
// values; drivers commonly hand text back as []byte.
func normalizeSQLValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
