package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultQueueSize = 1024

type shipment struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// shipper drains queued records to remote handlers on one goroutine.
type shipper struct {
	mu      sync.RWMutex
	closed  bool
	queue   chan shipment
	done    chan struct{}
	dropped atomic.Uint64
}

func newShipper(size int) *shipper {
	if size <= 0 {
		size = defaultQueueSize
	}
	s := &shipper{queue: make(chan shipment, size), done: make(chan struct{})}
	go s.run()
	return s
}

func (s *shipper) run() {
	defer close(s.done)
	for item := range s.queue {
		_ = item.handler.Handle(item.ctx, item.record)
	}
}

func (s *shipper) enqueue(item shipment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- item:
	default:
		s.dropped.Add(1)
	}
}

func (s *shipper) close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TeeHandler writes each record to a local handler synchronously and queues
// a copy for a remote handler, so a slow log sink never blocks a request.
// Remote copies are dropped when the queue is full.
type TeeHandler struct {
	local  slog.Handler
	remote slog.Handler
	ship   *shipper
}

// NewTeeHandler creates a TeeHandler. queueSize <= 0 uses a default.
func NewTeeHandler(local, remote slog.Handler, queueSize int) *TeeHandler {
	return &TeeHandler{local: local, remote: remote, ship: newShipper(queueSize)}
}

// Enabled reports whether either side handles the level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.remote.Enabled(ctx, level)
}

// Handle writes locally and enqueues the remote copy.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.remote.Enabled(ctx, r.Level) {
		h.ship.enqueue(shipment{ctx: context.WithoutCancel(ctx), record: r.Clone(), handler: h.remote})
	}
	if h.local.Enabled(ctx, r.Level) {
		return h.local.Handle(ctx, r)
	}
	return nil
}

// WithAttrs applies attrs to both sides; the queue is shared.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TeeHandler{local: h.local.WithAttrs(attrs), remote: h.remote.WithAttrs(attrs), ship: h.ship}
}

// WithGroup applies the group to both sides; the queue is shared.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	return &TeeHandler{local: h.local.WithGroup(name), remote: h.remote.WithGroup(name), ship: h.ship}
}

// Dropped reports how many remote copies were discarded.
func (h *TeeHandler) Dropped() uint64 {
	return h.ship.dropped.Load()
}

// Shutdown stops accepting remote copies and waits for the queue to drain
// or ctx to end.
func (h *TeeHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.ship == nil {
		return nil
	}
	return h.ship.close(ctx)
}
