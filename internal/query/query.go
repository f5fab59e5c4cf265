// Package query defines the commands a caller submits to the query worker
// and the events the worker reports back.
//
// Commands and events are closed sets: every variant is a small struct and
// the interfaces carry an unexported marker method, so a type switch over
// them is exhaustive in practice.
package query

import (
	"fmt"

	"github.com/tkopets/asyncdb/internal/db"
)

// Command is one requested operation.
type Command interface {
	// ID is the caller-chosen query id.
	ID() string
	command()
}

// Execute runs SQL once and discards the statement afterwards. An empty SQL
// runs the prepared statement cached under QueryID instead.
type Execute struct {
	QueryID string
	SQL     string
}

// Prepare compiles SQL and caches it under QueryID.
type Prepare struct {
	QueryID string
	SQL     string
}

// BindValue sets a named parameter on a prepared statement.
// ":value" and "value" name the same placeholder.
type BindValue struct {
	QueryID     string
	Placeholder string
	Value       any
}

// ExecutePrepared runs the statement cached under QueryID with its current
// bindings. ResultID tags this execution's events; when empty the worker
// generates a unique one.
type ExecutePrepared struct {
	QueryID  string
	ResultID string
}

func (c Execute) ID() string         { return c.QueryID }
func (c Prepare) ID() string         { return c.QueryID }
func (c BindValue) ID() string       { return c.QueryID }
func (c ExecutePrepared) ID() string { return c.QueryID }

func (Execute) command()         {}
func (Prepare) command()         {}
func (BindValue) command()       {}
func (ExecutePrepared) command() {}

// Event is one reported outcome.
type Event interface {
	// ID is the query id the event belongs to; empty for status events.
	ID() string
	event()
}

// Executed reports a successful execution. It is emitted before Results.
type Executed struct {
	QueryID  string
	ResultID string
}

// ExecuteFailed reports a failed execution; no Results follows it.
type ExecuteFailed struct {
	QueryID  string
	ResultID string
	Err      error
}

type Prepared struct {
	QueryID string
}

type PrepareFailed struct {
	QueryID string
	Err     error
}

// Results carries the complete result set of one successful execution.
type Results struct {
	QueryID  string
	ResultID string
	Rows     *db.Rows
}

// Rejected reports a command that never reached the database: its
// statement id is unknown or the worker has no connection.
type Rejected struct {
	QueryID  string
	ResultID string
	Err      error
}

// Progress is human-readable status text with no semantic content.
type Progress struct {
	Message string
}

// Ready reports whether the worker accepts commands. Err is set when the
// connection could not be opened.
type Ready struct {
	OK  bool
	Err error
}

func (e Executed) ID() string      { return e.QueryID }
func (e ExecuteFailed) ID() string { return e.QueryID }
func (e Prepared) ID() string      { return e.QueryID }
func (e PrepareFailed) ID() string { return e.QueryID }
func (e Results) ID() string       { return e.QueryID }
func (e Rejected) ID() string      { return e.QueryID }
func (Progress) ID() string        { return "" }
func (Ready) ID() string           { return "" }

func (Executed) event()      {}
func (ExecuteFailed) event() {}
func (Prepared) event()      {}
func (PrepareFailed) event() {}
func (Results) event()       {}
func (Rejected) event()      {}
func (Progress) event()      {}
func (Ready) event()         {}

// Describe renders an event as a single log line.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case Executed:
		return fmt.Sprintf("%s/%s:: executed", e.QueryID, e.ResultID)
	case ExecuteFailed:
		return fmt.Sprintf("%s/%s:: execute failed: %v", e.QueryID, e.ResultID, e.Err)
	case Prepared:
		return fmt.Sprintf("%s:: prepared", e.QueryID)
	case PrepareFailed:
		return fmt.Sprintf("%s:: prepare failed: %v", e.QueryID, e.Err)
	case Results:
		return fmt.Sprintf("%s/%s:: result count: %d", e.QueryID, e.ResultID, e.Rows.Len())
	case Rejected:
		return fmt.Sprintf("%s:: rejected: %v", e.QueryID, e.Err)
	case Progress:
		return e.Message
	case Ready:
		if e.Err != nil {
			return fmt.Sprintf("ready=%t (%v)", e.OK, e.Err)
		}
		return fmt.Sprintf("ready=%t", e.OK)
	default:
		return fmt.Sprintf("%T", ev)
	}
}
