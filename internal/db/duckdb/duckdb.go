package duckdb

import (
	"context"

	_ "github.com/duckdb/duckdb-go/v2" // register driver
	"github.com/jmoiron/sqlx"

	"github.com/tkopets/asyncdb/internal/db"
)

func init() {
	sqlx.BindDriver("duckdb", sqlx.QUESTION)
}

type DuckDB struct {
	db.Conn
}

// DSN returns the database file path; an empty name opens an in-memory
// database.
func DSN(p db.Params) string {
	if p.DSN != "" {
		return p.DSN
	}
	return p.Database
}

func Open(path string) (*DuckDB, error) {
	if path == "" {
		path = ":memory:"
	}
	x, err := db.Connect("duckdb", path)
	if err != nil {
		return nil, err
	}
	return &DuckDB{Conn: db.Conn{X: x}}, nil
}

func (d *DuckDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema()
ORDER BY table_name;
`
	var out []string
	if err := d.X.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DuckDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	const q = `
SELECT column_name AS name, data_type AS type
FROM information_schema.columns
WHERE table_schema = current_schema()
  AND table_name = ?
ORDER BY ordinal_position;
`
	var cols []db.Column
	if err := d.X.SelectContext(ctx, &cols, q, table); err != nil {
		return nil, err
	}
	return cols, nil
}
