// Package errors defines the typed errors reported by the query worker.
// Every error carries a machine-readable Kind and the id of the query it
// belongs to, so callers can render a failure against the request they made.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Connection indicates the worker could not open its connection.
	// It is the only kind that disables the worker for good.
	Connection Kind = "connection"
	// Prepare indicates statement compilation failed.
	Prepare Kind = "prepare"
	// DuplicateStatement indicates a Prepare reused a cached query id.
	DuplicateStatement Kind = "duplicate_statement"
	// UnknownStatement indicates a bind or execute referenced an id that
	// was never prepared.
	UnknownStatement Kind = "unknown_statement"
	// Execution indicates the database rejected a query or execution.
	Execution Kind = "execution"
)

// E wraps an error with kind, query id and human-friendly message.
type E struct {
	Kind    Kind
	QueryID string
	Message string
	Err     error
}

func (e *E) Error() string {
	prefix := string(e.Kind)
	if e.QueryID != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Kind, e.QueryID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E of the same kind.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Kind == e.Kind && t.QueryID == "" && t.Message == "" && t.Err == nil
}

func Wrap(kind Kind, queryID, msg string, err error) *E {
	return &E{Kind: kind, QueryID: queryID, Message: msg, Err: err}
}

func New(kind Kind, queryID, msg string) *E {
	return &E{Kind: kind, QueryID: queryID, Message: msg}
}

// KindOf returns the kind of the first *E in err's chain, or "".
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Sentinels for errors.Is matching by kind.
var (
	ErrConnection         = &E{Kind: Connection}
	ErrPrepare            = &E{Kind: Prepare}
	ErrDuplicateStatement = &E{Kind: DuplicateStatement}
	ErrUnknownStatement   = &E{Kind: UnknownStatement}
	ErrExecution          = &E{Kind: Execution}
)
