// Package advisory delivers intervention prompts without blocking the
// session tick.
package advisory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-zenith/internal/log"
)

// ErrClosed is returned by Submit after the dispatcher has stopped.
var ErrClosed = errors.New("advisory: dispatcher closed")

// Sink delivers one advisory message.
type Sink interface {
	Deliver(ctx context.Context, msg string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg string) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, msg string) error {
	return f(ctx, msg)
}

// Config holds dispatcher settings.
type Config struct {
	QueueSize       int
	DeliveryTimeout time.Duration
	Logger          *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Config)

// WithQueueSize sets how many advisories may wait for delivery.
func WithQueueSize(n int) Option {
	return func(c *Config) { c.QueueSize = n }
}

// WithDeliveryTimeout bounds each sink call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(c *Config) { c.DeliveryTimeout = d }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:       8,
		DeliveryTimeout: 15 * time.Second,
		Logger:          log.L(),
	}
}

// Dispatcher fans each submitted advisory out to every sink on a single
// worker goroutine. Submit never blocks.
type Dispatcher struct {
	sinks   []Sink
	queue   chan string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher creates a dispatcher for sinks. Call Run to start delivery.
func NewDispatcher(sinks []Sink, opts ...Option) *Dispatcher {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan string, cfg.QueueSize),
		timeout: cfg.DeliveryTimeout,
		logger:  cfg.Logger.With("component", "advisory.dispatcher"),
	}
}

// Submit queues msg for delivery. It returns false when the queue is full
// and the advisory was dropped.
func (d *Dispatcher) Submit(msg string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false, ErrClosed
	}

	select {
	case d.queue <- msg:
		return true, nil
	default:
		d.dropped.Add(1)
		d.logger.Warn("advisory queue full, dropping", "message", msg)
		return false, nil
	}
}

// Run delivers queued advisories until ctx is cancelled. Advisories still
// queued at cancellation are delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		case <-ctx.Done():
			d.mu.Lock()
			d.closed = true
			d.mu.Unlock()
			close(d.queue)
			for msg := range d.queue {
				d.deliver(context.WithoutCancel(ctx), msg)
			}
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg string) {
	for _, s := range d.sinks {
		sctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Deliver(sctx, msg)
		cancel()
		if err != nil {
			d.failed.Add(1)
			d.logger.Warn("advisory sink failed", "error", err)
		}
	}
	d.delivered.Add(1)
}

// Stats reports delivery counters.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
