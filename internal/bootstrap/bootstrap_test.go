package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkopets/asyncdb/internal/db/sqlite"
	"github.com/tkopets/asyncdb/internal/logging"
)

func TestSeedIsIdempotent(t *testing.T) {
	conn, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.sqlite"))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Seed(ctx, conn, "sqlite", 25, logging.Discard()))
	require.NoError(t, Seed(ctx, conn, "sqlite", 25, logging.Discard()))

	rows, err := conn.Query(ctx, "SELECT count(*) AS n, min(id) AS lo, max(id) AS hi FROM item")
	require.NoError(t, err)
	n, _ := rows.Value(0, "n")
	lo, _ := rows.Value(0, "lo")
	hi, _ := rows.Value(0, "hi")
	assert.Equal(t, int64(25), n)
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(24), hi)

	rows, err = conn.Query(ctx, "SELECT name FROM item WHERE id = 10")
	require.NoError(t, err)
	name, _ := rows.Value(0, "name")
	assert.Equal(t, "10", name)

	cols, err := conn.DescribeTable(ctx, Table)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "name", cols[1].Name)
}

func TestSeedSkipsExistingTable(t *testing.T) {
	conn, err := sqlite.Open(filepath.Join(t.TempDir(), "existing.sqlite"))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	_, err = conn.X.ExecContext(ctx, "CREATE TABLE item (id int, name varchar(32))")
	require.NoError(t, err)

	require.NoError(t, Hook("sqlite", 50, logging.Discard())(ctx, conn))

	rows, err := conn.Query(ctx, "SELECT count(*) AS n FROM item")
	require.NoError(t, err)
	n, _ := rows.Value(0, "n")
	assert.Equal(t, int64(0), n)
}

func TestSeedRejectsForeignItemTable(t *testing.T) {
	conn, err := sqlite.Open(filepath.Join(t.TempDir(), "foreign.sqlite"))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	_, err = conn.X.ExecContext(ctx, "CREATE TABLE item (sku text, qty int)")
	require.NoError(t, err)

	err = Seed(ctx, conn, "sqlite", 10, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id, name")
}

func TestFindTableKeepsListedName(t *testing.T) {
	name, ok := findTable([]string{"dbo.orders", "dbo.Item"}, Table)
	require.True(t, ok)
	assert.Equal(t, "dbo.Item", name)
}

func TestFindTable(t *testing.T) {
	tests := []struct {
		name   string
		tables []string
		want   bool
	}{
		{"bare", []string{"orders", "item"}, true},
		{"schema qualified", []string{"public.item"}, true},
		{"upper case", []string{"dbo.ITEM"}, true},
		{"prefix only", []string{"items", "item_archive"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := findTable(tt.tables, Table)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestDDL(t *testing.T) {
	assert.Contains(t, DDL("clickhouse"), "MergeTree")
	assert.NotContains(t, DDL("sqlite"), "ENGINE")
}
