package postgres

import (
	"context"
	"net"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx stdlib driver

	"github.com/tkopets/asyncdb/internal/db"
)

type PostgresDB struct {
	db.Conn
}

// DSN builds a postgres:// URL from the connection parameters.
func DSN(p db.Params) string {
	if p.DSN != "" {
		return p.DSN
	}
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	if p.Port != "" {
		host = net.JoinHostPort(host, p.Port)
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + p.Database,
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	return u.String()
}

func Open(dsn string) (*PostgresDB, error) {
	x, err := db.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresDB{Conn: db.Conn{X: x, Normalize: db.TextValues}}, nil
}

func (p *PostgresDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT table_schema || '.' || table_name AS name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name;
`
	var out []string
	if err := p.X.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// DescribeTable lists the columns of "table" or "schema.table"; a bare
// name is looked up in the current schema.
func (p *PostgresDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	schema, name := db.SplitTable(table)

	const q = `
SELECT column_name AS name, data_type AS type
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
  AND table_name = $2
ORDER BY ordinal_position;
`
	var cols []db.Column
	if err := p.X.SelectContext(ctx, &cols, q, schema, name); err != nil {
		return nil, err
	}
	return cols, nil
}
