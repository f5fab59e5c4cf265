// Package dispatch runs a query handler on its own goroutine and relays the
// events it produces to subscribers.
//
// Callers submit commands without blocking. Commands are handled one at a
// time in submission order, and every event of a command reaches the sinks
// before any event of the next one.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/tkopets/asyncdb/internal/query"
	"github.com/tkopets/asyncdb/internal/queue"
	"github.com/tkopets/asyncdb/internal/worker"
)

// Handler owns the database connection. Only the dispatcher's worker
// goroutine calls Open and Handle.
type Handler interface {
	Open(ctx context.Context, emit worker.Emit) error
	Handle(ctx context.Context, cmd query.Command, emit worker.Emit)
	Close() error
}

// Sink receives events on the relay goroutine. A slow sink delays every
// sink after it.
type Sink func(query.Event)

// ChanSink forwards events to ch. The relay blocks while ch is full.
func ChanSink(ch chan<- query.Event) Sink {
	return func(ev query.Event) { ch <- ev }
}

type Option func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithDrainOnStop makes Stop handle every command still queued instead of
// discarding them.
func WithDrainOnStop(drain bool) Option {
	return func(d *Dispatcher) { d.drain = drain }
}

type Dispatcher struct {
	h      Handler
	logger *slog.Logger
	drain  bool

	cmds   *queue.Queue[query.Command]
	events *queue.Queue[query.Event]

	mu      sync.Mutex
	sinks   []Sink
	started bool
	stopped bool

	workerDone chan struct{}
	relayDone  chan struct{}

	stopOnce sync.Once
	stopErr  error
}

func New(h Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		h:          h,
		logger:     slog.Default(),
		cmds:       queue.New[query.Command](),
		events:     queue.New[query.Event](),
		workerDone: make(chan struct{}),
		relayDone:  make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Start opens the connection on the worker goroutine and begins handling
// commands. The outcome of the open is reported as a Ready event.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return errors.New("dispatch: start after stop")
	}
	if d.started {
		return errors.New("dispatch: already started")
	}
	d.started = true

	d.emit(query.Ready{OK: false})
	d.emit(query.Progress{Message: "starting…"})

	go d.relay()
	go d.run(context.Background())
	return nil
}

// Submit queues cmd. It never blocks. Commands submitted before Start wait
// for the connection; commands submitted after Stop are dropped.
func (d *Dispatcher) Submit(cmd query.Command) {
	if !d.cmds.Put(cmd) {
		d.logger.Warn("dispatcher stopped, command dropped", "query_id", cmd.ID())
	}
}

// Subscribe adds a sink. Sinks added while events flow only see the events
// relayed after the call.
func (d *Dispatcher) Subscribe(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Stop shuts the dispatcher down and closes the handler. Events emitted
// before Stop returns have been delivered; none are delivered afterwards.
func (d *Dispatcher) Stop() error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		started := d.started
		d.mu.Unlock()

		d.cmds.Close()
		if !d.drain {
			if n := d.cmds.Discard(); n > 0 {
				d.logger.Info("discarded pending commands", "count", n)
			}
		}
		if started {
			<-d.workerDone
		}

		d.stopErr = d.h.Close()
		if d.stopErr != nil {
			d.logger.Warn("closing handler failed", "err", d.stopErr)
		}

		d.events.Close()
		if started {
			<-d.relayDone
		}
	})
	return d.stopErr
}

func (d *Dispatcher) emit(ev query.Event) {
	if !d.events.Put(ev) {
		d.logger.Debug("event after stop dropped", "event", query.Describe(ev))
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.workerDone)

	if err := d.h.Open(ctx, d.emit); err != nil {
		d.emit(query.Progress{Message: "unable to connect to database, giving up"})
		d.emit(query.Ready{OK: false, Err: err})
	} else {
		d.emit(query.Progress{Message: "database ready"})
		d.emit(query.Ready{OK: true})
	}

	for {
		cmd, ok := d.cmds.Get()
		if !ok {
			return
		}
		d.h.Handle(ctx, cmd, d.emit)
	}
}

func (d *Dispatcher) relay() {
	defer close(d.relayDone)

	for {
		ev, ok := d.events.Get()
		if !ok {
			return
		}
		d.logger.Debug(query.Describe(ev))

		d.mu.Lock()
		sinks := slices.Clone(d.sinks)
		d.mu.Unlock()
		for _, s := range sinks {
			s(ev)
		}
	}
}
