package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Conn is the driver-neutral part of DB. Driver packages embed it and add
// their catalogue queries.
type Conn struct {
	X *sqlx.DB

	// Normalize, when set, is applied to every scanned value together with
	// the lower-cased database type name of its column.
	Normalize func(v any, dbType string) any
}

// Connect opens a single-connection handle and verifies it with a ping.
// The handle is never recycled so prepared statements stay on one session.
func Connect(driverName, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty %s DSN", driverName)
	}

	x, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	x.SetMaxOpenConns(1)
	x.SetMaxIdleConns(1)
	x.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := x.PingContext(ctx); err != nil {
		x.Close()
		return nil, err
	}
	return x, nil
}

func (c *Conn) Close() error {
	if c.X == nil {
		return nil
	}
	return c.X.Close()
}

func (c *Conn) Query(ctx context.Context, sqlQuery string, args ...any) (*Rows, error) {
	rows, err := c.X.QueryxContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	return drain(rows, c.Normalize)
}

func (c *Conn) Prepare(ctx context.Context, sqlQuery string) (Stmt, error) {
	ns, err := c.X.PrepareNamedContext(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}
	return &namedStmt{ns: ns, normalize: c.Normalize}, nil
}

func (c *Conn) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return c.X.BeginTxx(ctx, nil)
}

type namedStmt struct {
	ns        *sqlx.NamedStmt
	normalize func(v any, dbType string) any
}

func (s *namedStmt) Params() []string {
	return s.ns.Params
}

func (s *namedStmt) Query(ctx context.Context, args map[string]any) (*Rows, error) {
	if args == nil {
		args = map[string]any{}
	}
	rows, err := s.ns.QueryxContext(ctx, args)
	if err != nil {
		return nil, err
	}
	return drain(rows, s.normalize)
}

func (s *namedStmt) Close() error {
	return s.ns.Close()
}

// drain reads the cursor to the end and releases it.
func drain(rows *sqlx.Rows, normalize func(v any, dbType string) any) (*Rows, error) {
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	header := make([]Column, len(colNames))
	for i, name := range colNames {
		typ := ""
		if i < len(colTypes) && colTypes[i] != nil {
			typ = strings.ToLower(colTypes[i].DatabaseTypeName())
		}
		header[i] = Column{
			Name: name,
			Type: typ,
		}
	}

	data := []Row{}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		if normalize != nil {
			for i, v := range values {
				values[i] = normalize(v, header[i].Type)
			}
		}
		data = append(data, Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Rows{
		Columns: header,
		Data:    data,
	}, nil
}

// TextValues turns driver byte slices into strings and timestamps into
// RFC 3339 text, for drivers that return TEXT columns as []byte.
func TextValues(v any, _ string) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}
