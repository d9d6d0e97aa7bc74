// Package waterfall coalesces rapid single-item writes into chunked flushes.
//
// Items accumulate until either the chunk size is reached or the flush
// interval elapses, whichever comes first. Stopping drains everything that
// was accepted before the stop.
package waterfall

import (
	"context"
	"sync"
	"time"
)

// Waterfall batches items of type T and hands them to a flush callback.
type Waterfall[T any] struct {
	maxWait     time.Duration
	maxQuantity int
	flush       func(items []T)

	in   chan T
	stop chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Waterfall that flushes at most maxQuantity items at a time
// and at least every maxWait. The callback runs on the waterfall's own
// goroutine; it must not call back into Put.
func New[T any](maxWait time.Duration, maxQuantity int, flush func(items []T)) *Waterfall[T] {
	return &Waterfall[T]{
		maxWait:     maxWait,
		maxQuantity: maxQuantity,
		flush:       flush,
		in:          make(chan T, maxQuantity),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the background flusher. Subsequent calls are no-ops.
func (w *Waterfall[T]) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Put queues item for the next flush. After Stop it is a no-op.
func (w *Waterfall[T]) Put(item T) {
	select {
	case <-w.stop:
	case w.in <- item:
	}
}

// Stop drains queued items, flushes them, and waits for the flusher to exit
// or ctx to expire.
func (w *Waterfall[T]) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Waterfall[T]) run() {
	defer close(w.done)

	batch := make([]T, 0, w.maxQuantity)
	timer := time.NewTimer(w.maxWait)
	defer timer.Stop()

	doFlush := func() {
		if len(batch) == 0 {
			return
		}
		items := batch
		batch = make([]T, 0, w.maxQuantity)
		w.flush(items)
	}

	for {
		select {
		case item := <-w.in:
			batch = append(batch, item)
			if len(batch) >= w.maxQuantity {
				doFlush()
			}
		case <-timer.C:
			doFlush()
			timer.Reset(w.maxWait)
		case <-w.stop:
			// Drain anything buffered before the stop, then flush once more.
			for {
				select {
				case item := <-w.in:
					batch = append(batch, item)
					if len(batch) >= w.maxQuantity {
						doFlush()
					}
				default:
					doFlush()
					return
				}
			}
		}
	}
}
