package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/tkopets/asyncdb/internal/app"
	"github.com/tkopets/asyncdb/internal/config"
	"github.com/tkopets/asyncdb/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	var (
		query   string
		logFile string
	)
	flag.StringVar(&query, "q", "", "SQL query to run in non-interactive mode")
	flag.StringVar(&cfg.DB.Driver, "driver", cfg.DB.Driver, "database driver: sqlite, postgres, mysql, mssql, duckdb, clickhouse")
	flag.StringVar(&cfg.DB.DSN, "dsn", cfg.DB.DSN, "connection string, overrides host/port/user/password/database")
	flag.StringVar(&cfg.DB.Host, "host", cfg.DB.Host, "database host")
	flag.StringVar(&cfg.DB.Port, "port", cfg.DB.Port, "database port")
	flag.StringVar(&cfg.DB.User, "user", cfg.DB.User, "database user")
	flag.StringVar(&cfg.DB.Database, "db", cfg.DB.Database, "database name or file")
	flag.IntVar(&cfg.SampleRecords, "records", cfg.SampleRecords, "sample rows to create in a fresh database")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log", "", "write logs to this file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: asyncdb [flags] [db]")
		fmt.Fprintln(os.Stderr, "  reads a command script from stdin when it is not a terminal")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}
	if flag.NArg() == 1 {
		cfg.DB.Database = flag.Arg(0)
	}
	if cfg.SampleRecords < 0 {
		fmt.Fprintln(os.Stderr, "error: -records must not be negative")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stdinIsTTY := term.IsTerminal(int(os.Stdin.Fd()))
	stdoutIsTTY := term.IsTerminal(int(os.Stdout.Fd()))
	interactive := query == "" && stdinIsTTY && stdoutIsTTY

	var logOut io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	} else if interactive {
		// the UI owns the terminal
		logOut = io.Discard
	}
	logger := logging.New(cfg.LogLevel, logOut)
	slog.SetDefault(logger)

	if !interactive {
		if err := app.RunNonInteractive(ctx, cfg, query, os.Stdin, os.Stdout, logger); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := app.RunInteractive(ctx, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
