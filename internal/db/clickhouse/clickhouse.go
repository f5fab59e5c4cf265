package clickhouse

import (
	"context"
	"net"
	"net/url"

	_ "github.com/ClickHouse/clickhouse-go/v2" // register driver
	"github.com/jmoiron/sqlx"

	"github.com/tkopets/asyncdb/internal/db"
)

func init() {
	sqlx.BindDriver("clickhouse", sqlx.QUESTION)
}

type ClickHouseDB struct {
	db.Conn
}

// DSN builds a clickhouse:// URL (native protocol) from the parameters.
func DSN(p db.Params) string {
	if p.DSN != "" {
		return p.DSN
	}
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == "" {
		port = "9000"
	}
	u := url.URL{
		Scheme: "clickhouse",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + p.Database,
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

func Open(dsn string) (*ClickHouseDB, error) {
	x, err := db.Connect("clickhouse", dsn)
	if err != nil {
		return nil, err
	}
	return &ClickHouseDB{Conn: db.Conn{X: x, Normalize: db.TextValues}}, nil
}

func (c *ClickHouseDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT name
FROM system.tables
WHERE database = currentDatabase()
ORDER BY name
`
	var out []string
	if err := c.X.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClickHouseDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	const q = `
SELECT name, type
FROM system.columns
WHERE database = currentDatabase()
  AND table = ?
ORDER BY position
`
	var cols []db.Column
	if err := c.X.SelectContext(ctx, &cols, q, table); err != nil {
		return nil, err
	}
	return cols, nil
}
