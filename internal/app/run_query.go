package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/tkopets/asyncdb/internal/config"
	"github.com/tkopets/asyncdb/internal/dispatch"
	"github.com/tkopets/asyncdb/internal/print"
	"github.com/tkopets/asyncdb/internal/query"
)

// RunNonInteractive runs a single query, or the script read from in when
// q is empty, and writes every outcome to out. It returns an error when
// the connection failed or any command did not succeed.
func RunNonInteractive(ctx context.Context, cfg config.Config, q string, in io.Reader, out io.Writer, logger *slog.Logger) error {
	var cmds []query.Command
	if q != "" {
		cmds = []query.Command{query.Execute{QueryID: "1", SQL: q}}
	} else {
		parsed, err := ParseScript(in)
		if err != nil {
			return err
		}
		cmds = parsed
	}
	if len(cmds) == 0 {
		pterm.Info.WithWriter(out).Println("nothing to run")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := newWorker(cfg, logger)
	if err != nil {
		return err
	}
	d := dispatch.New(w, dispatch.WithLogger(logger), dispatch.WithDrainOnStop(true))

	r := &reporter{out: out, logger: logger}
	d.Subscribe(r.handle)

	for _, c := range cmds {
		d.Submit(c)
	}
	if err := d.Start(); err != nil {
		return err
	}
	if err := d.Stop(); err != nil {
		logger.Warn("closing connection failed", "err", err)
	}

	if r.connErr != nil {
		return r.connErr
	}
	if r.failed > 0 {
		return fmt.Errorf("%d of %d commands failed", r.failed, len(cmds))
	}
	return nil
}

// reporter renders events. It runs on the dispatcher's relay goroutine and
// is read only after Stop returned.
type reporter struct {
	out     io.Writer
	logger  *slog.Logger
	connErr error
	failed  int
}

func (r *reporter) handle(ev query.Event) {
	switch e := ev.(type) {
	case query.Ready:
		if e.Err != nil {
			r.connErr = e.Err
			pterm.Error.WithWriter(r.out).Println(e.Err.Error())
		}
	case query.Progress:
		r.logger.Info(e.Message)
	case query.Prepared:
		r.logger.Debug("prepared", "query_id", e.QueryID)
	case query.Executed:
		r.logger.Debug("executed", "query_id", e.QueryID, "result_id", e.ResultID)
	case query.Results:
		title := e.QueryID
		if e.ResultID != e.QueryID {
			title = e.QueryID + "/" + e.ResultID
		}
		fmt.Fprintf(r.out, "%s:: %d rows\n", title, e.Rows.Len())
		print.RenderTable(r.out, e.Rows, print.Options{MaxWidth: 60})
	case query.ExecuteFailed:
		r.fail(e.Err)
	case query.PrepareFailed:
		r.fail(e.Err)
	case query.Rejected:
		r.failed++
		// a dead connection was already reported once
		if r.connErr == nil {
			pterm.Warning.WithWriter(r.out).Println(e.Err.Error())
		}
	}
}

func (r *reporter) fail(err error) {
	r.failed++
	pterm.Error.WithWriter(r.out).Println(err.Error())
}
