// Package notify delivers committed approval outcomes to best-effort sinks.
//
// The approval service emits a lifecycle.Event after a decision is durably
// recorded. The Dispatcher queues it and worker goroutines hand it to every
// sink. Sink failures are logged and counted, never returned to the resolver.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contentflow/internal/lifecycle"
	"contentflow/internal/metrics"
)

// Sink is one notification channel.
type Sink interface {
	Name() string
	Notify(ctx context.Context, ev lifecycle.Event) error
}

// Dispatcher is a lifecycle.Emitter that fans events out to sinks in the background.
type Dispatcher struct {
	sinks   []Sink
	queue   chan lifecycle.Event
	workers int
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a bounded queue.
// timeout bounds a single sink delivery.
func NewDispatcher(queueSize, workers int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan lifecycle.Event, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	slog.Info("notification dispatcher started", "workers", d.workers, "sinks", names)

	for range d.workers {
		d.wg.Add(1)
		go d.work()
	}
}

// Emit queues ev without blocking. When the queue is full or the dispatcher
// is stopped the event is dropped and logged.
func (d *Dispatcher) Emit(ev lifecycle.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		slog.Warn("notification dropped, dispatcher stopped", "event", ev.Type, "content_id", ev.ContentID)
		return
	}

	select {
	case d.queue <- ev:
	default:
		metrics.RecordNotification("queue", fmt.Errorf("queue full"))
		slog.Warn("notification dropped, queue full", "event", ev.Type, "content_id", ev.ContentID)
	}
}

// Stop closes the queue and waits for workers to drain it or for ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.deliver(ev)
	}
}

// deliver hands ev to every sink. One failing sink does not affect the others.
func (d *Dispatcher) deliver(ev lifecycle.Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := notifySafely(ctx, s, ev)
		cancel()

		metrics.RecordNotification(s.Name(), err)
		if err != nil {
			slog.Warn("notification failed",
				"sink", s.Name(),
				"event", ev.Type,
				"content_id", ev.ContentID,
				"error", err,
			)
		}
	}
}

func notifySafely(ctx context.Context, s Sink, ev lifecycle.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.Notify(ctx, ev)
}
