// Package dispatcher fans vending events out to registered handlers.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/gumball-machine/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// Subscribe registers a named handler for one or more event types
	Subscribe(name string, handler Handler, eventTypes ...event.Type)

	// Dispatch runs handlers in registration order and returns the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// Handlers returns the names subscribed to an event type
	Handlers(eventType event.Type) []string

	// Close rejects further events
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type subscription struct {
	name    string
	handler Handler
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]subscription
	logger   Logger
	closed   atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]subscription),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(name string, handler Handler, eventTypes ...event.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, eventType := range eventTypes {
		d.handlers[eventType] = append(d.handlers[eventType], subscription{name: name, handler: handler})

		if d.logger != nil {
			d.logger.Info("Handler registered", "event_type", eventType, "handler_name", name)
		}
	}
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	for _, s := range d.snapshot(evt.Type) {
		if err := d.safeExecute(ctx, evt, s); err != nil {
			if d.logger != nil {
				d.logger.Error("Handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"machine_id", evt.MachineID,
					"handler_name", s.name,
					"error", err,
				)
			}
			return fmt.Errorf("handler %s failed: %w", s.name, err)
		}
	}

	return nil
}

func (d *eventDispatcher) Handlers(eventType event.Type) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers[eventType]))
	for _, s := range d.handlers[eventType] {
		names = append(names, s.name)
	}
	return names
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}

	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}

	return nil
}

func (d *eventDispatcher) snapshot(eventType event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]subscription(nil), d.handlers[eventType]...)
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, s subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			if d.logger != nil {
				d.logger.Error("Handler panic recovered",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", s.name,
					"panic", r,
				)
			}
		}
	}()

	return s.handler(ctx, evt)
}
