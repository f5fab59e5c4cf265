package mysql

import (
	"context"
	"net"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/tkopets/asyncdb/internal/db"
)

type MysqlDB struct {
	db.Conn
}

// DSN formats the connection parameters with the driver's own config type.
func DSN(p db.Params) string {
	if p.DSN != "" {
		return p.DSN
	}
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := p.Port
	if port == "" {
		port = "3306"
	}

	cfg := gomysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = p.Database
	return cfg.FormatDSN()
}

func Open(dsn string) (*MysqlDB, error) {
	x, err := db.Connect("mysql", dsn)
	if err != nil {
		return nil, err
	}
	// MySQL returns TEXT/VARCHAR as []byte
	return &MysqlDB{Conn: db.Conn{X: x, Normalize: db.TextValues}}, nil
}

// --- db.DB catalogue ---

func (m *MysqlDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema = DATABASE()
ORDER BY table_name;
`
	var out []string
	if err := m.X.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MysqlDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	const q = `
SELECT column_name AS name, CAST(data_type AS CHAR) AS type
FROM information_schema.columns
WHERE table_schema = DATABASE()
  AND table_name = ?
ORDER BY ordinal_position;
`
	var cols []db.Column
	if err := m.X.SelectContext(ctx, &cols, q, table); err != nil {
		return nil, err
	}
	return cols, nil
}
