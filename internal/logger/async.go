package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Closer flushes buffered log records on shutdown and reports how many
// were discarded along the way.
type Closer interface {
	Close()
	Dropped() int64
}

// nopCloser is returned in synchronous mode, where nothing buffers.
type nopCloser struct{}

func (nopCloser) Close()         {}
func (nopCloser) Dropped() int64 { return 0 }

// entry pairs a record with the handler that accepted it, so attrs and
// groups added via Logger.With survive the trip through the shared queue.
type entry struct {
	h   slog.Handler
	rec slog.Record
}

// AsyncHandler decouples log emission from the request path. Records are
// pushed onto a buffered queue and written by a single background
// drainer; when the queue is full the record is discarded and counted
// instead of stalling an analysis in flight.
type AsyncHandler struct {
	inner   slog.Handler
	queue   chan entry
	done    chan struct{}
	dropped *atomic.Int64
}

// NewAsyncHandler wraps inner with a queue of the given capacity and
// starts the drainer.
func NewAsyncHandler(inner slog.Handler, buffer int) *AsyncHandler {
	if buffer < 1 {
		buffer = 1
	}
	h := &AsyncHandler{
		inner:   inner,
		queue:   make(chan entry, buffer),
		done:    make(chan struct{}),
		dropped: &atomic.Int64{},
	}
	go h.drain()
	return h
}

func (h *AsyncHandler) drain() {
	defer close(h.done)
	for e := range h.queue {
		_ = e.h.Handle(context.Background(), e.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.queue <- entry{h: h.inner, rec: rec}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs derives the inner handler and shares the queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), queue: h.queue, done: h.done, dropped: h.dropped}
}

// WithGroup derives the inner handler and shares the queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), queue: h.queue, done: h.done, dropped: h.dropped}
}

// Dropped returns how many records were discarded on queue overflow.
func (h *AsyncHandler) Dropped() int64 {
	return h.dropped.Load()
}

// Close stops accepting records, waits for the drainer to empty the
// queue, and writes a final warning if anything was discarded.
func (h *AsyncHandler) Close() {
	close(h.queue)
	<-h.done
	if n := h.dropped.Load(); n > 0 {
		rec := slog.NewRecord(time.Now(), slog.LevelWarn, "log queue overflowed", 0)
		rec.AddAttrs(slog.Int64("dropped_records", n))
		_ = h.inner.Handle(context.Background(), rec)
	}
}
