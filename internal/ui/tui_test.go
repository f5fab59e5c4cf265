package ui

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkopets/asyncdb/internal/db"
	apperrors "github.com/tkopets/asyncdb/internal/errors"
	"github.com/tkopets/asyncdb/internal/query"
)

type fakeSubmitter struct {
	cmds []query.Command
}

func (f *fakeSubmitter) Submit(cmd query.Command) {
	f.cmds = append(f.cmds, cmd)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	mm, ok := next.(model)
	require.True(t, ok)
	return mm
}

func TestDemoWaitsForReady(t *testing.T) {
	sub := &fakeSubmitter{}
	m := newModel(sub, "sqlite", 1000)

	m = update(t, m, key('g'))
	assert.Empty(t, sub.cmds)

	m = update(t, m, eventMsg{ev: query.Ready{OK: false, Err: fmt.Errorf("refused")}})
	m = update(t, m, key('g'))
	assert.Empty(t, sub.cmds)
	assert.Contains(t, m.View(), "connection failed")
}

func TestDemoDispatchesBatch(t *testing.T) {
	sub := &fakeSubmitter{}
	m := newModel(sub, "sqlite", 1000)
	m.offset = func(n int) int {
		assert.Equal(t, 900, n)
		return 7
	}

	m = update(t, m, eventMsg{ev: query.Ready{OK: true}})
	m = update(t, m, key('g'))

	require.Equal(t, DemoBatch(7, true), sub.cmds)
	last := sub.cmds[len(sub.cmds)-1].(query.Execute)
	assert.Equal(t, "model", last.QueryID)
	assert.True(t, strings.HasSuffix(last.SQL, "offset 7"))
	assert.Contains(t, strings.Join(m.log, "\n"), "Dispatched all queries.")
}

func TestSmallDatabaseUsesZeroOffset(t *testing.T) {
	sub := &fakeSubmitter{}
	m := newModel(sub, "sqlite", 50)
	m.offset = func(int) int {
		t.Fatal("offset drawn for a database smaller than one page")
		return 0
	}

	m = update(t, m, eventMsg{ev: query.Ready{OK: true}})
	update(t, m, key('g'))
	assert.Equal(t, DemoBatch(0, true), sub.cmds)
}

func TestSecondBatchReusesLookup(t *testing.T) {
	sub := &fakeSubmitter{}
	m := newModel(sub, "sqlite", 50)

	m = update(t, m, eventMsg{ev: query.Ready{OK: true}})
	m = update(t, m, key('g'))
	first := len(sub.cmds)
	m = update(t, m, key('g'))

	second := sub.cmds[first:]
	assert.Equal(t, DemoBatch(0, false), second)
	for _, c := range second {
		_, ok := c.(query.Prepare)
		assert.False(t, ok, "lookup prepared twice")
	}
	assert.Contains(t, second, query.BindValue{QueryID: "6", Placeholder: ":value", Value: 10})
	assert.Contains(t, second, query.Execute{QueryID: "6"})

	// a duplicate report keeps the statement; any other failure drops it
	m = update(t, m, eventMsg{ev: query.PrepareFailed{QueryID: "6", Err: apperrors.New(apperrors.DuplicateStatement, "6", "already prepared")}})
	assert.True(t, m.prepared)
	m = update(t, m, eventMsg{ev: query.PrepareFailed{QueryID: "6", Err: apperrors.New(apperrors.Prepare, "6", "no such table")}})
	assert.False(t, m.prepared)

	n := len(sub.cmds)
	update(t, m, key('g'))
	assert.Equal(t, DemoBatch(0, true), sub.cmds[n:])
}

func TestStopLogsCloseError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	stop(failingStopper{}, logger)
	assert.Contains(t, buf.String(), "closing connection failed")
	assert.Contains(t, buf.String(), "disk I/O error")

	buf.Reset()
	stop(failingStopper{ok: true}, logger)
	assert.Empty(t, buf.String())
}

type failingStopper struct{ ok bool }

func (f failingStopper) Stop() error {
	if f.ok {
		return nil
	}
	return fmt.Errorf("disk I/O error")
}

func TestResultsFillLogAndTable(t *testing.T) {
	m := newModel(&fakeSubmitter{}, "sqlite", 1000)

	rows := &db.Rows{
		Columns: []db.Column{{Name: "id"}, {Name: "name"}},
		Data:    []db.Row{{int64(10), "10"}},
	}
	m = update(t, m, eventMsg{ev: query.Results{QueryID: "6", ResultID: "6#1", Rows: rows}})

	log := strings.Join(m.log, "\n")
	assert.Contains(t, log, "6/6#1:: result count: 1")
	assert.Contains(t, log, "6: 10,10")
	require.Len(t, m.result.Rows(), 1)
	assert.Equal(t, "10", m.result.Rows()[0][0])
	require.Len(t, m.result.Columns(), 2)

	big := &db.Rows{Columns: []db.Column{{Name: "id"}}}
	for i := 0; i < 11; i++ {
		big.Data = append(big.Data, db.Row{int64(i)})
	}
	m = update(t, m, eventMsg{ev: query.Results{QueryID: "2", ResultID: "2", Rows: big}})
	assert.Contains(t, m.log[len(m.log)-1], "more than 10")
	assert.Len(t, m.result.Rows(), 11)
	assert.Len(t, m.result.Columns(), 1)
}

func TestFailuresAreLogged(t *testing.T) {
	m := newModel(&fakeSubmitter{}, "sqlite", 1000)
	m = update(t, m, eventMsg{ev: query.ExecuteFailed{QueryID: "x", ResultID: "x", Err: fmt.Errorf("syntax error")}})
	assert.Contains(t, m.log[len(m.log)-1], "syntax error")
}

func TestLogIsBounded(t *testing.T) {
	m := newModel(&fakeSubmitter{}, "sqlite", 1000)
	for i := 0; i < maxLogLines+20; i++ {
		m.appendLog(fmt.Sprint(i))
	}
	assert.Len(t, m.log, maxLogLines)
	assert.Equal(t, fmt.Sprint(maxLogLines+19), m.log[len(m.log)-1])
}

func TestQuit(t *testing.T) {
	m := newModel(&fakeSubmitter{}, "sqlite", 1000)
	_, cmd := m.Update(key('q'))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestViewShowsHeader(t *testing.T) {
	m := newModel(&fakeSubmitter{}, "duckdb", 1000)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = update(t, m, eventMsg{ev: query.Ready{OK: true}})

	v := m.View()
	assert.Contains(t, v, "ASYNCDB")
	assert.Contains(t, v, "DUCKDB")
	assert.Contains(t, v, "ready")
}
