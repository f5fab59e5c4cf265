package duckdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkopets/asyncdb/internal/db"
)

func TestCatalogue(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "test.duckdb"))
	require.NoError(t, err)
	defer d.Close()

	ctx := context.Background()
	_, err = d.X.ExecContext(ctx, "CREATE TABLE item (id INTEGER, name VARCHAR)")
	require.NoError(t, err)

	tables, err := d.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"item"}, tables)

	cols, err := d.DescribeTable(ctx, "item")
	require.NoError(t, err)
	assert.Equal(t, []db.Column{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "VARCHAR"}}, cols)
}

func TestNamedStatement(t *testing.T) {
	d, err := Open("")
	require.NoError(t, err)
	defer d.Close()

	ctx := context.Background()
	stmt, err := d.Prepare(ctx, "SELECT CAST(:v AS INTEGER) * 2 AS doubled")
	require.NoError(t, err)
	defer stmt.Close()

	rows, err := stmt.Query(ctx, map[string]any{"v": 21})
	require.NoError(t, err)
	v, ok := rows.Value(0, "doubled")
	require.True(t, ok)
	assert.EqualValues(t, 42, v)
}
