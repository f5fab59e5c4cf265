package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tkopets/asyncdb/internal/bootstrap"
	"github.com/tkopets/asyncdb/internal/config"
	"github.com/tkopets/asyncdb/internal/db"
	"github.com/tkopets/asyncdb/internal/db/clickhouse"
	"github.com/tkopets/asyncdb/internal/db/duckdb"
	"github.com/tkopets/asyncdb/internal/db/mssql"
	"github.com/tkopets/asyncdb/internal/db/mysql"
	"github.com/tkopets/asyncdb/internal/db/postgres"
	"github.com/tkopets/asyncdb/internal/db/sqlite"
	"github.com/tkopets/asyncdb/internal/dispatch"
	"github.com/tkopets/asyncdb/internal/logging"
	"github.com/tkopets/asyncdb/internal/ui"
	"github.com/tkopets/asyncdb/internal/worker"
)

type Driver string

const (
	DriverSqlite     Driver = "sqlite"
	DriverPostgres   Driver = "postgres"
	DriverMssql      Driver = "mssql"
	DriverMysql      Driver = "mysql"
	DriverDuckDB     Driver = "duckdb"
	DriverClickHouse Driver = "clickhouse"
)

// dsnFor resolves the driver specific DSN for p.
func dsnFor(p db.Params) (string, error) {
	switch Driver(p.Driver) {
	case "", DriverSqlite:
		return sqlite.DSN(p), nil
	case DriverPostgres:
		return postgres.DSN(p), nil
	case DriverMssql:
		return mssql.DSN(p), nil
	case DriverMysql:
		return mysql.DSN(p), nil
	case DriverDuckDB:
		return duckdb.DSN(p), nil
	case DriverClickHouse:
		return clickhouse.DSN(p), nil
	default:
		return "", fmt.Errorf("unsupported driver %q", p.Driver)
	}
}

// central factory
func openDB(driver Driver, dsn string) (db.DB, error) {
	switch driver {
	case "", DriverSqlite:
		return open(sqlite.Open, dsn)
	case DriverPostgres:
		return open(postgres.Open, dsn)
	case DriverMssql:
		return open(mssql.Open, dsn)
	case DriverMysql:
		return open(mysql.Open, dsn)
	case DriverDuckDB:
		return open(duckdb.Open, dsn)
	case DriverClickHouse:
		return open(clickhouse.Open, dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// open keeps a failed driver open from leaking a typed nil into db.DB.
func open[T db.DB](fn func(string) (T, error), dsn string) (db.DB, error) {
	conn, err := fn(dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// newWorker builds a worker that connects with cfg and seeds the sample
// table on first connect.
func newWorker(cfg config.Config, logger *slog.Logger) (*worker.Worker, error) {
	dsn, err := dsnFor(cfg.DB)
	if err != nil {
		return nil, err
	}
	driver := Driver(cfg.DB.Driver)
	if driver == "" {
		driver = DriverSqlite
	}

	opener := func(ctx context.Context) (db.DB, error) {
		logger.Info("connecting", "driver", driver, "dsn", logging.Mask(dsn))
		return openDB(driver, dsn)
	}

	return worker.New(opener,
		worker.WithLogger(logger),
		worker.WithConnectHook(bootstrap.Hook(string(driver), cfg.SampleRecords, logger)),
	), nil
}

// RunInteractive starts the terminal UI on top of a dispatcher.
func RunInteractive(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	w, err := newWorker(cfg, logger)
	if err != nil {
		return err
	}
	d := dispatch.New(w, dispatch.WithLogger(logger))

	// Label for header
	label := cfg.DB.Driver
	if label == "" {
		label = string(DriverSqlite)
	}

	return ui.Run(ctx, d, label, cfg.SampleRecords, logger)
}
