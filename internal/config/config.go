// Package config reads connection and runtime settings from the environment.
// An optional .env file supplies values the environment leaves unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/tkopets/asyncdb/internal/db"
)

const prefix = "ASYNCDB_"

// Config holds everything the binary needs to start.
type Config struct {
	DB            db.Params
	SampleRecords int
	LogLevel      string
}

// Load reads the given env files (".env" when none are named; a missing
// file is not an error) and overlays the process environment on top.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	fileVals := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := fileVals[k]; !ok {
				fileVals[k] = v
			}
		}
	}

	get := func(key, def string) string {
		if v := os.Getenv(prefix + key); v != "" {
			return v
		}
		if v := fileVals[prefix+key]; v != "" {
			return v
		}
		return def
	}

	c := Config{
		DB: db.Params{
			Driver:   get("DRIVER", "sqlite"),
			Host:     get("HOST", "localhost"),
			Port:     get("PORT", ""),
			User:     get("USER", ""),
			Password: get("PASSWORD", ""),
			Database: get("DATABASE", "asyncdb.sqlite"),
			DSN:      get("DSN", ""),
		},
		LogLevel: get("LOG_LEVEL", "info"),
	}

	records, err := strconv.Atoi(get("SAMPLE_RECORDS", "1000"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %sSAMPLE_RECORDS: %w", prefix, err)
	}
	if records < 0 {
		return Config{}, fmt.Errorf("%sSAMPLE_RECORDS must not be negative, got %d", prefix, records)
	}
	c.SampleRecords = records

	return c, nil
}
