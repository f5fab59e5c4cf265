package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParamName(t *testing.T) {
	assert.Equal(t, "value", ParamName(":value"))
	assert.Equal(t, "value", ParamName("value"))
	assert.Equal(t, "p1", ParamName(" @p1 "))
}

func TestSplitTable(t *testing.T) {
	schema, name := SplitTable("dbo.item")
	assert.Equal(t, "dbo", schema)
	assert.Equal(t, "item", name)

	schema, name = SplitTable("item")
	assert.Empty(t, schema)
	assert.Equal(t, "item", name)
}

func TestRowsValue(t *testing.T) {
	rows := &Rows{
		Columns: []Column{{Name: "id"}, {Name: "name"}},
		Data:    []Row{{int64(1), "one"}},
	}

	v, ok := rows.Value(0, "name")
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	_, ok = rows.Value(0, "missing")
	assert.False(t, ok)
	_, ok = rows.Value(1, "id")
	assert.False(t, ok)

	var nilRows *Rows
	assert.Equal(t, 0, nilRows.Len())
	_, ok = nilRows.Value(0, "id")
	assert.False(t, ok)
}

func TestTextValues(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "abc", TextValues([]byte("abc"), "varchar"))
	assert.Equal(t, "2024-05-01T12:30:00Z", TextValues(ts, "datetime"))
	assert.Equal(t, int64(3), TextValues(int64(3), "int"))
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := Connect("sqlite", "")
	assert.Error(t, err)
}
