// Package events runs reactions to newly created ledger documents.
package events

import (
	"context"
	"sync"

	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// Handler reacts to the creation of document id. It must be idempotent: the
// outbox sweeps may deliver the same id again.
type Handler func(ctx context.Context, id string) error

var eventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_events_total",
		Help: "Create events by collection and outcome",
	},
	[]string{"collection", "outcome"},
)

func init() {
	prometheus.MustRegister(eventsTotal)
}

type event struct {
	ctx context.Context
	ref ledger.Ref
}

// Dispatcher routes create events to per-collection handlers on a bounded
// worker pool. With zero workers handlers run inline on the committing
// goroutine.
type Dispatcher struct {
	workers int

	mu       sync.RWMutex
	handlers map[string]Handler
	queue    chan event
	closed   bool

	wg sync.WaitGroup
}

func New(workers, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Dispatcher{
		workers:  workers,
		handlers: make(map[string]Handler),
		queue:    make(chan event, queueSize),
	}
}

// Handle registers h for documents created in collection.
func (d *Dispatcher) Handle(collection string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[collection] = h
}

// Attach subscribes the dispatcher to store commits.
func (d *Dispatcher) Attach(store *ledger.Store) {
	store.OnCreate(d.Publish)
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for ev := range d.queue {
				d.run(ev.ctx, ev.ref)
			}
		}()
	}
	logger.Info("event dispatcher started", "workers", d.workers)
}

// Stop drains queued events and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

// Publish hands a created ref to its handler. It never blocks: when the
// queue is full the event is dropped and left to the outbox sweep.
func (d *Dispatcher) Publish(ctx context.Context, ref ledger.Ref) {
	d.mu.RLock()
	_, ok := d.handlers[ref.Collection]
	if !ok || d.closed {
		d.mu.RUnlock()
		return
	}

	if d.workers == 0 {
		d.mu.RUnlock()
		d.run(ctx, ref)
		return
	}

	select {
	case d.queue <- event{ctx: ctx, ref: ref}:
		d.mu.RUnlock()
	default:
		d.mu.RUnlock()
		eventsTotal.WithLabelValues(ref.Collection, "dropped").Inc()
		logger.Warn("event queue full, leaving to sweep", "ref", ref.String())
	}
}

func (d *Dispatcher) run(ctx context.Context, ref ledger.Ref) {
	d.mu.RLock()
	h := d.handlers[ref.Collection]
	d.mu.RUnlock()
	if h == nil {
		return
	}

	if err := h(ctx, ref.ID); err != nil {
		eventsTotal.WithLabelValues(ref.Collection, "failed").Inc()
		logger.Error("event handler failed", "ref", ref.String(), "error", err)
		return
	}
	eventsTotal.WithLabelValues(ref.Collection, "handled").Inc()
}
