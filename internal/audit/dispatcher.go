package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 256

// Dispatcher forwards events to a sink from its own goroutine. The
// flows emit fire-and-forget: Emit never blocks, and when the buffer
// is full the event is dropped and counted instead. Losing an audit
// record is preferred over stalling the request that produced it.
//
// A nil Dispatcher is valid and discards everything, so callers never
// branch on whether auditing is enabled.
type Dispatcher struct {
	sink      Sink
	logger    *slog.Logger
	events    chan Event
	done      chan struct{}
	stopped   sync.WaitGroup
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewDispatcher starts the forwarding goroutine. A nil sink disables
// auditing and yields a nil Dispatcher.
func NewDispatcher(sink Sink, buffer int, logger *slog.Logger) *Dispatcher {
	if sink == nil {
		return nil
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sink:   sink,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}

	d.stopped.Add(1)
	go d.forward()

	return d
}

func (d *Dispatcher) forward() {
	defer d.stopped.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			// Flush what is already buffered, then stop.
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an event without blocking. Drops are counted; the first
// one is logged so a stuck sink is visible without flooding the log.
func (d *Dispatcher) Emit(event Event) {
	if d == nil {
		return
	}

	select {
	case <-d.done:
	case d.events <- event:
	default:
		if d.dropped.Add(1) == 1 {
			d.logger.Warn("audit buffer full, dropping events",
				slog.String("event_type", event.EventType))
		}
	}
}

// Close flushes buffered events and stops the dispatcher.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.done)
		d.stopped.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer
// was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
