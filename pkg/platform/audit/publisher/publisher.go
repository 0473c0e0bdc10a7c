package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"drivelog/pkg/domain"
	"drivelog/pkg/platform/audit"
)

// Store persists audit events for inspection.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
	ListBySubject(ctx context.Context, subject domain.Identity) ([]audit.Event, error)
}

// Sink receives a copy of every event for external consumers (message broker,
// SIEM). Sink failures never fail the emitting operation.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Publisher fans audit events out to a store and optional sinks. Synchronous
// by default; WithAsyncBuffer switches to a buffered worker that drains on
// Close.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger

	buffer    chan audit.Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer emits events through a buffered channel so callers never
// block on slow sinks. Events still in the buffer are drained on Close.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

// WithSink adds an external fan-out target.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sink)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. Timestamps are stamped here when the caller left
// them zero so domain code does not need its own clock for audit purposes.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.buffer != nil {
		select {
		case p.buffer <- event:
			return nil
		default:
			// Full buffer: deliver inline rather than dropping the event.
			p.deliver(context.WithoutCancel(ctx), event)
			return nil
		}
	}
	p.deliver(ctx, event)
	return nil
}

// List returns the recorded events for a subject, oldest first.
func (p *Publisher) List(ctx context.Context, subject domain.Identity) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close drains any buffered events and stops the worker. Safe to call twice.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		p.deliver(context.Background(), event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit store append failed",
			"action", event.Action,
			"error", err,
		)
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
