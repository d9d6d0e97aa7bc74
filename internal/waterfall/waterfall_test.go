package waterfall

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func recvBatch(t *testing.T, ch <-chan []int64) []int64 {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a flush")
		return nil
	}
}

func TestFlushesOnQuantity(t *testing.T) {
	defer goleak.VerifyNone(t)

	flushed := make(chan []int64, 4)
	w := New(time.Hour, 3, func(items []int64) { flushed <- items })
	w.Start()
	defer w.Stop(context.Background()) //nolint:errcheck // cleanup

	w.Put(1)
	w.Put(2)
	w.Put(3)

	batch := recvBatch(t, flushed)
	if len(batch) != 3 {
		t.Fatalf("batch = %v, want 3 items", batch)
	}
}

func TestFlushesOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	flushed := make(chan []int64, 4)
	w := New(50*time.Millisecond, 100, func(items []int64) { flushed <- items })
	w.Start()
	defer w.Stop(context.Background()) //nolint:errcheck // cleanup

	w.Put(7)
	w.Put(8)

	batch := recvBatch(t, flushed)
	if len(batch) != 2 || batch[0] != 7 || batch[1] != 8 {
		t.Fatalf("batch = %v, want [7 8]", batch)
	}
}

func TestStopDrains(t *testing.T) {
	defer goleak.VerifyNone(t)

	flushed := make(chan []int64, 4)
	w := New(time.Hour, 100, func(items []int64) { flushed <- items })
	w.Start()

	for i := range 5 {
		w.Put(int64(i))
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	batch := recvBatch(t, flushed)
	if len(batch) != 5 {
		t.Fatalf("batch = %v, want 5 items", batch)
	}
}

func TestPutAfterStopIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	flushed := make(chan []int64, 4)
	w := New(time.Hour, 100, func(items []int64) { flushed <- items })
	w.Start()
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	w.Put(1)

	select {
	case batch := <-flushed:
		t.Fatalf("unexpected flush after stop: %v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New(time.Hour, 100, func([]int64) {})
	w.Start()

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("first Stop() error: %v", err)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop() error: %v", err)
	}
}

func TestStopHonorsContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	w := New(time.Hour, 1, func([]int64) { <-release })
	w.Start()
	w.Put(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Stop(ctx); err == nil {
		t.Fatal("Stop() should fail while the flush callback is stuck")
	}

	close(release)
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() after release: %v", err)
	}
}
