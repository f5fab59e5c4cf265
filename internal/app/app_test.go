package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkopets/asyncdb/internal/config"
	"github.com/tkopets/asyncdb/internal/db"
	"github.com/tkopets/asyncdb/internal/logging"
	"github.com/tkopets/asyncdb/internal/query"
)

func TestParseScript(t *testing.T) {
	script := `
# sample session
-- also a comment
select count(*) from item
exec total SELECT sum(id) FROM item
prepare 6 SELECT * FROM item WHERE id = :value
bind 6 :value 10
run 6
run 6 second
select 1
`
	cmds, err := ParseScript(strings.NewReader(script))
	require.NoError(t, err)

	want := []query.Command{
		query.Execute{QueryID: "sql1", SQL: "select count(*) from item"},
		query.Execute{QueryID: "total", SQL: "SELECT sum(id) FROM item"},
		query.Prepare{QueryID: "6", SQL: "SELECT * FROM item WHERE id = :value"},
		query.BindValue{QueryID: "6", Placeholder: ":value", Value: int64(10)},
		query.ExecutePrepared{QueryID: "6"},
		query.ExecutePrepared{QueryID: "6", ResultID: "second"},
		query.Execute{QueryID: "sql2", SQL: "select 1"},
	}
	assert.Equal(t, want, cmds)
}

func TestParseScriptBareIDsAvoidExplicitIDs(t *testing.T) {
	script := `
exec 1 select 10
select 20
prepare 2 SELECT * FROM item WHERE id = :value
select 30
`
	cmds, err := ParseScript(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, cmds, 4)

	ids := map[string]bool{}
	for _, c := range cmds {
		ids[c.ID()] = true
	}
	assert.Len(t, ids, 4)
	assert.Equal(t, "sql1", cmds[1].ID())
	assert.Equal(t, "sql2", cmds[3].ID())
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"exec without sql", "exec 1"},
		{"prepare without sql", "prepare 1"},
		{"bind without value", "bind 1 :v"},
		{"run without id", "run"},
		{"run with extra words", "run 1 r1 r2"},
		{"bad string literal", `bind 1 :v "unterminated`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(tt.script))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"NULL", nil},
		{"true", true},
		{"False", false},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"2.5", 2.5},
		{`"a b"`, "a b"},
		{"'it''s'", "it's"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DB:            db.Params{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "app.sqlite")},
		SampleRecords: 20,
		LogLevel:      "error",
	}
}

func TestRunNonInteractiveScript(t *testing.T) {
	script := `
select count(*) AS n from item
prepare 6 SELECT id, name FROM item WHERE id = :value
bind 6 :value 10
run 6 r1
bind 6 :value 11
run 6 r2
`
	var out bytes.Buffer
	err := RunNonInteractive(context.Background(), sqliteConfig(t), "", strings.NewReader(script), &out, logging.Discard())
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "sql1:: 1 rows")
	assert.Contains(t, s, "| 20 |")
	assert.Contains(t, s, "6/r1:: 1 rows")
	assert.Contains(t, s, "6/r2:: 1 rows")
	assert.Less(t, strings.Index(s, "6/r1::"), strings.Index(s, "6/r2::"))
	assert.Contains(t, s, "| 11 | 11   |")
}

func TestRunNonInteractiveSingleQuery(t *testing.T) {
	var out bytes.Buffer
	err := RunNonInteractive(context.Background(), sqliteConfig(t), "SELECT max(id) AS hi FROM item", nil, &out, logging.Discard())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "| 19 |")
}

func TestRunNonInteractiveReportsFailures(t *testing.T) {
	script := "select * from no_such_table\nrun missing\n"

	var out bytes.Buffer
	err := RunNonInteractive(context.Background(), sqliteConfig(t), "", strings.NewReader(script), &out, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 commands failed")
	assert.Contains(t, out.String(), "no_such_table")
	assert.Contains(t, out.String(), "prepared query id not found")
}

func TestRunNonInteractiveConnectionFailure(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DB.Database = filepath.Join(t.TempDir(), "missing", "dir", "app.sqlite")

	var out bytes.Buffer
	err := RunNonInteractive(context.Background(), cfg, "SELECT 1", nil, &out, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to connect")
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.DB.Driver = "oracle"

	err := RunNonInteractive(context.Background(), cfg, "SELECT 1", nil, &bytes.Buffer{}, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
