package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

type Column struct {
	Name string
	Type string
}

type Row []any

// Rows is a fully drained result set. Data rows are in cursor order and
// every row is aligned with Columns.
type Rows struct {
	Columns []Column
	Data    []Row
}

// Len returns the number of data rows.
func (r *Rows) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Data)
}

// Value returns the value of the named column in the given row.
func (r *Rows) Value(row int, column string) (any, bool) {
	if r == nil || row < 0 || row >= len(r.Data) {
		return nil, false
	}
	for i, col := range r.Columns {
		if col.Name == column && i < len(r.Data[row]) {
			return r.Data[row][i], true
		}
	}
	return nil, false
}

type DB interface {
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) ([]Column, error)
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)
	Prepare(ctx context.Context, sql string) (Stmt, error)
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
}

// Stmt is a compiled statement with named placeholders (":name").
type Stmt interface {
	// Params lists the placeholder names in the order they appear.
	Params() []string
	Query(ctx context.Context, args map[string]any) (*Rows, error)
	Close() error
}

// Params are the fixed connection parameters handed to a driver.
// A non-empty DSN wins over the individual fields.
type Params struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	DSN      string
}

// SplitTable splits "schema.table" at the first dot. schema is empty for a
// bare name.
func SplitTable(table string) (schema, name string) {
	if dot := strings.Index(table, "."); dot != -1 {
		return table[:dot], table[dot+1:]
	}
	return "", table
}

// ParamName strips the placeholder prefix, so ":value" and "value" bind the
// same parameter.
func ParamName(placeholder string) string {
	return strings.TrimLeft(strings.TrimSpace(placeholder), ":@")
}
