// Package worker executes query commands against a single database
// connection and reports their outcome as events.
//
// A Worker is not safe for concurrent use. It is meant to be driven by
// exactly one goroutine, which then is the only one that ever touches the
// connection and the prepared-statement cache.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/tkopets/asyncdb/internal/db"
	apperrors "github.com/tkopets/asyncdb/internal/errors"
	"github.com/tkopets/asyncdb/internal/query"
)

type State int32

const (
	Uninitialized State = iota
	Connecting
	Ready
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Opener opens the worker's connection from fixed parameters.
type Opener func(ctx context.Context) (db.DB, error)

// ConnectHook runs once right after the connection was opened.
type ConnectHook func(ctx context.Context, conn db.DB) error

// Emit receives the events produced by Open and Handle.
type Emit func(query.Event)

type Option func(*Worker)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithConnectHook runs h after a successful open, e.g. to seed sample data.
// A failing hook is logged and reported as progress; the worker stays usable.
func WithConnectHook(h ConnectHook) Option {
	return func(w *Worker) { w.hook = h }
}

type statement struct {
	sql  string
	stmt db.Stmt
	args map[string]any
	// caller result ids shaped like generated ones
	taken map[string]bool
}

type Worker struct {
	open   Opener
	hook   ConnectHook
	logger *slog.Logger

	state   atomic.Int32
	conn    db.DB
	connErr error
	stmts   map[string]*statement
	seq     uint64
}

func New(open Opener, opts ...Option) *Worker {
	w := &Worker{
		open:   open,
		logger: slog.Default(),
		stmts:  make(map[string]*statement),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State is safe to call from any goroutine.
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Open connects the worker. A failed open is permanent: the worker moves
// to Failed and rejects every command from then on.
func (w *Worker) Open(ctx context.Context, emit Emit) error {
	if s := w.State(); s != Uninitialized {
		return fmt.Errorf("worker: open in state %s", s)
	}
	w.setState(Connecting)

	conn, err := w.open(ctx)
	if err != nil {
		w.connErr = apperrors.Wrap(apperrors.Connection, "", "unable to connect to database", err)
		w.setState(Failed)
		w.logger.Warn("unable to connect to database, giving up", "err", err)
		return w.connErr
	}
	w.conn = conn

	if w.hook != nil {
		if err := w.hook(ctx, conn); err != nil {
			w.logger.Warn("connect hook failed", "err", err)
			emit(query.Progress{Message: fmt.Sprintf("database initialisation failed: %v", err)})
		}
	}

	w.setState(Ready)
	return nil
}

// Handle executes one command and emits its events before returning.
func (w *Worker) Handle(ctx context.Context, cmd query.Command, emit Emit) {
	if w.State() != Ready {
		w.logger.Debug("command rejected, not connected", "query_id", cmd.ID(), "state", w.State())
		err := apperrors.Wrap(apperrors.Connection, cmd.ID(), "not connected", w.connErr)
		emit(query.Rejected{QueryID: cmd.ID(), ResultID: rejectedResultID(cmd), Err: err})
		return
	}

	switch c := cmd.(type) {
	case query.Execute:
		// no sql means: run the statement prepared under this id
		if c.SQL == "" {
			w.executePrepared(ctx, c.QueryID, "", emit)
			return
		}
		w.executeOneTime(ctx, c.QueryID, c.SQL, emit)
	case query.Prepare:
		w.prepare(ctx, c.QueryID, c.SQL, emit)
	case query.BindValue:
		w.bindValue(c.QueryID, c.Placeholder, c.Value, emit)
	case query.ExecutePrepared:
		w.executePrepared(ctx, c.QueryID, c.ResultID, emit)
	default:
		w.logger.Warn("unsupported command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (w *Worker) executeOneTime(ctx context.Context, qid, sql string, emit Emit) {
	rows, err := w.conn.Query(ctx, sql)
	if err != nil {
		w.logger.Debug("execute failed for one time query", "query_id", qid, "err", err)
		emit(query.ExecuteFailed{
			QueryID:  qid,
			ResultID: qid,
			Err:      apperrors.Wrap(apperrors.Execution, qid, "execute failed", err),
		})
		return
	}

	emit(query.Executed{QueryID: qid, ResultID: qid})
	emit(query.Results{QueryID: qid, ResultID: qid, Rows: rows})
}

func (w *Worker) prepare(ctx context.Context, qid, sql string, emit Emit) {
	if _, ok := w.stmts[qid]; ok {
		w.logger.Debug("already prepared query id", "query_id", qid)
		emit(query.PrepareFailed{
			QueryID: qid,
			Err:     apperrors.New(apperrors.DuplicateStatement, qid, "query id already prepared"),
		})
		return
	}

	stmt, err := w.conn.Prepare(ctx, sql)
	if err != nil {
		w.logger.Debug("prepare failed", "query_id", qid, "err", err)
		emit(query.PrepareFailed{
			QueryID: qid,
			Err:     apperrors.Wrap(apperrors.Prepare, qid, "prepare failed", err),
		})
		return
	}

	w.stmts[qid] = &statement{sql: sql, stmt: stmt, args: make(map[string]any), taken: make(map[string]bool)}
	emit(query.Prepared{QueryID: qid})
}

func (w *Worker) bindValue(qid, placeholder string, value any, emit Emit) {
	st, ok := w.stmts[qid]
	if !ok {
		w.logger.Debug("prepared query id not found", "query_id", qid)
		emit(query.Rejected{QueryID: qid, Err: unknownStatement(qid)})
		return
	}

	name := db.ParamName(placeholder)
	if !slices.Contains(st.stmt.Params(), name) {
		w.logger.Debug("placeholder not used by statement", "query_id", qid, "placeholder", placeholder)
	}
	st.args[name] = value
}

func (w *Worker) executePrepared(ctx context.Context, qid, rid string, emit Emit) {
	st, ok := w.stmts[qid]
	if !ok {
		w.logger.Debug("prepared query id not found", "query_id", qid)
		emit(query.Rejected{QueryID: qid, ResultID: rid, Err: unknownStatement(qid)})
		return
	}

	if rid == "" {
		rid = w.nextResultID(qid, st)
	} else if strings.HasPrefix(rid, qid+"#") {
		st.taken[rid] = true
	}

	rows, err := st.stmt.Query(ctx, maps.Clone(st.args))
	if err != nil {
		w.logger.Debug("execute failed for prepared query", "query_id", qid, "result_id", rid, "sql", st.sql, "err", err)
		emit(query.ExecuteFailed{
			QueryID:  qid,
			ResultID: rid,
			Err:      apperrors.Wrap(apperrors.Execution, qid, "execute failed", err),
		})
		return
	}

	emit(query.Executed{QueryID: qid, ResultID: rid})
	emit(query.Results{QueryID: qid, ResultID: rid, Rows: rows})
}

// Close releases the cached statements and the connection. It is safe to
// call more than once; only the first call closes anything.
func (w *Worker) Close() error {
	if w.State() == Closed {
		return nil
	}

	var errs []error
	for id, st := range w.stmts {
		if err := st.stmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close statement %s: %w", id, err))
		}
	}
	clear(w.stmts)

	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		w.conn = nil
	}

	w.setState(Closed)
	return errors.Join(errs...)
}

// nextResultID returns "<qid>#<n>", skipping ids the caller already used.
func (w *Worker) nextResultID(qid string, st *statement) string {
	for {
		w.seq++
		rid := fmt.Sprintf("%s#%d", qid, w.seq)
		if !st.taken[rid] {
			return rid
		}
	}
}

func unknownStatement(qid string) error {
	return apperrors.New(apperrors.UnknownStatement, qid, "prepared query id not found")
}

func rejectedResultID(cmd query.Command) string {
	switch c := cmd.(type) {
	case query.Execute:
		if c.SQL != "" {
			return c.QueryID
		}
	case query.ExecutePrepared:
		return c.ResultID
	}
	return ""
}
