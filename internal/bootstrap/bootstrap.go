// Package bootstrap seeds an empty database with the sample item table.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tkopets/asyncdb/internal/db"
	"github.com/tkopets/asyncdb/internal/worker"
)

// Table is the marker table. Its presence means the database was seeded.
const Table = "item"

// DDL returns the statement that creates Table for the given driver.
func DDL(driver string) string {
	if driver == "clickhouse" {
		return "CREATE TABLE item (id Int32, name String) ENGINE = MergeTree ORDER BY id"
	}
	return "CREATE TABLE item (id int, name varchar(32))"
}

// columns the demo queries read from Table.
var columns = []string{"id", "name"}

// Seed creates Table and fills it with records rows (id, name) where name
// is the decimal id. A database that already has Table is left alone, but
// its columns must include id and name.
func Seed(ctx context.Context, conn db.DB, driver string, records int, logger *slog.Logger) error {
	tables, err := conn.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	if name, ok := findTable(tables, Table); ok {
		if err := checkColumns(ctx, conn, name); err != nil {
			return err
		}
		logger.Debug("sample data present", "table", name)
		return nil
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, DDL(driver)); err != nil {
		return fmt.Errorf("create %s: %w", Table, err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind("INSERT INTO item (id, name) VALUES (?, ?)"))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < records; i++ {
		if _, err := stmt.ExecContext(ctx, i, strconv.Itoa(i)); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info("sample data created", "table", Table, "records", records)
	return nil
}

// Hook adapts Seed to a worker connect hook.
func Hook(driver string, records int, logger *slog.Logger) worker.ConnectHook {
	return func(ctx context.Context, conn db.DB) error {
		return Seed(ctx, conn, driver, records, logger)
	}
}

// findTable matches name either bare or schema-qualified and returns the
// listed form.
func findTable(tables []string, name string) (string, bool) {
	for _, t := range tables {
		lt := strings.ToLower(t)
		if lt == name || strings.HasSuffix(lt, "."+name) {
			return t, true
		}
	}
	return "", false
}

func checkColumns(ctx context.Context, conn db.DB, table string) error {
	cols, err := conn.DescribeTable(ctx, table)
	if err != nil {
		return fmt.Errorf("describe %s: %w", table, err)
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c.Name)] = true
	}
	var missing []string
	for _, c := range columns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s exists without column(s) %s", table, strings.Join(missing, ", "))
	}
	return nil
}
