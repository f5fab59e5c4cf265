package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // register driver

	"github.com/tkopets/asyncdb/internal/db"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type SqliteDB struct {
	db.Conn
}

// DSN returns the file path for p; the database name is the path.
func DSN(p db.Params) string {
	if p.DSN != "" {
		return p.DSN
	}
	return p.Database
}

func Open(path string) (*SqliteDB, error) {
	x, err := db.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys.
	if _, err := x.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = x.Close()
		return nil, err
	}

	return &SqliteDB{Conn: db.Conn{X: x}}, nil
}

func (s *SqliteDB) ListTables(ctx context.Context) ([]string, error) {
	// Use sqlite_master (works everywhere), include tables + views,
	// hide internal sqlite_% objects.
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY lower(name);
	`

	var out []string
	if err := s.X.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SqliteDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	q := fmt.Sprintf("PRAGMA table_info(%s);", quoteIdent(table))
	rows, err := s.X.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []db.Column
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, db.Column{
			Name: name,
			Type: strings.ToLower(ctype),
		})
	}
	return cols, rows.Err()
}

// very basic identifier quoting - enough for sqlite
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
