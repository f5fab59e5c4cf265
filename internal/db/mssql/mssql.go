package mssql

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/azuread"

	"github.com/tkopets/asyncdb/internal/db"
)

func init() {
	sqlx.BindDriver(azuread.DriverName, sqlx.AT)
}

type MssqlDB struct {
	db.Conn
}

// DSN builds a sqlserver:// URL from the connection parameters.
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
		Scheme: "sqlserver",
		Host:   host,
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	q := url.Values{}
	if p.Database != "" {
		q.Set("database", p.Database)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open opens a MSSQL connection.
// If the DSN contains "fedauth=", we use the Azure AD driver (azuresql)
// so things like ActiveDirectoryInteractive / AzCli work.
func Open(dsn string) (*MssqlDB, error) {
	driverName := "sqlserver"
	if strings.Contains(strings.ToLower(dsn), "fedauth=") {
		driverName = azuread.DriverName // "azuresql"
	}

	x, err := db.Connect(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return &MssqlDB{Conn: db.Conn{X: x, Normalize: normalize}}, nil
}

// --- db.DB catalogue ---

func (m *MssqlDB) ListTables(ctx context.Context) ([]string, error) {
	const q = `
SELECT TABLE_SCHEMA + '.' + TABLE_NAME AS name
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME;
`
	var out []string
	if err := m.X.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// DescribeTable lists the columns of "table" or "schema.table"; a bare
// name is looked up in the caller's default schema.
func (m *MssqlDB) DescribeTable(ctx context.Context, table string) ([]db.Column, error) {
	schema, name := db.SplitTable(table)

	const q = `
SELECT COLUMN_NAME AS name, DATA_TYPE AS type
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME())
  AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION;
`
	var cols []db.Column
	if err := m.X.SelectContext(ctx, &cols, q, schema, name); err != nil {
		return nil, err
	}
	return cols, nil
}

func normalize(v any, dbType string) any {
	switch x := v.(type) {
	case []byte:
		// NEVER string() binary; it wrecks the table.
		switch dbType {
		case "uniqueidentifier":
			return formatUniqueIdentifier(x)
		case "varchar", "nvarchar", "char", "nchar", "text", "ntext", "decimal", "money":
			return string(x)
		default:
			// safe hex representation for any other binary
			return fmt.Sprintf("0x%x", x)
		}
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}

func formatUniqueIdentifier(b []byte) string {
	if len(b) != 16 {
		return fmt.Sprintf("%x", b)
	}

	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9],
		b[10], b[11], b[12], b[13], b[14], b[15],
	)
}
