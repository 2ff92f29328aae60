// Package dispatcher fans domain events out to subscribed handlers. Request
// and match services publish through it so that notifications, item status
// sync, screening and release form generation never block or fail a user
// operation.
package dispatcher

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/unifound/lostfound/internal/domain/event"
)

// Handler processes one domain event.
type Handler func(ctx context.Context, evt *event.Event) error

// Dispatcher routes events to registered handlers.
type Dispatcher interface {
	// Subscribe registers a handler under an auto-generated name.
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler under an explicit name. Names
	// identify handlers in logs and in Unsubscribe.
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes the handler registered under name.
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs the handlers for the event in subscription order and
	// stops at the first error.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs the handlers for the event in subscription order
	// on a background goroutine. Handler errors are logged, never
	// returned, and never prevent later handlers from running.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// HandlerNames returns the names registered for an event type.
	HandlerNames(eventType event.Type) []string

	// Close stops accepting events and waits for in-flight async
	// dispatches to finish.
	Close() error
}

// Logger is the minimal logging surface the dispatcher needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type subscription struct {
	name string
	fn   Handler
}

type bus struct {
	mu     sync.RWMutex
	subs   map[event.Type][]subscription
	logger Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher.
type Option func(*bus)

// WithLogger sets the logger handler failures are reported through.
func WithLogger(logger Logger) Option {
	return func(b *bus) { b.logger = logger }
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...Option) Dispatcher {
	b := &bus{subs: make(map[event.Type][]subscription)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *bus) Subscribe(eventType event.Type, handler Handler) {
	b.mu.Lock()
	name := fmt.Sprintf("%s#%d", eventType, len(b.subs[eventType])+1)
	b.mu.Unlock()
	b.SubscribeNamed(eventType, name, handler)
}

func (b *bus) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], subscription{name: name, fn: handler})
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Info("Event handler registered", "event_type", eventType, "handler", name)
	}
}

func (b *bus) Unsubscribe(eventType event.Type, name string) {
	b.mu.Lock()
	b.subs[eventType] = slices.DeleteFunc(b.subs[eventType], func(s subscription) bool {
		return s.name == name
	})
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Info("Event handler removed", "event_type", eventType, "handler", name)
	}
}

func (b *bus) Dispatch(ctx context.Context, evt *event.Event) error {
	b.mu.RLock()
	if b.closed.Load() {
		b.mu.RUnlock()
		return fmt.Errorf("dispatcher is closed")
	}
	handlers := slices.Clone(b.subs[evt.Type])
	b.mu.RUnlock()

	for _, sub := range handlers {
		if err := invoke(ctx, evt, sub); err != nil {
			b.logFailure(evt, sub.name, err)
			return fmt.Errorf("handler %s: %w", sub.name, err)
		}
	}
	return nil
}

func (b *bus) DispatchAsync(ctx context.Context, evt *event.Event) {
	b.mu.RLock()
	if b.closed.Load() {
		b.mu.RUnlock()
		if b.logger != nil {
			b.logger.Error("Event dropped, dispatcher is closed",
				"event_type", evt.Type, "event_id", evt.ID)
		}
		return
	}
	handlers := slices.Clone(b.subs[evt.Type])
	b.wg.Add(1)
	b.mu.RUnlock()

	go func() {
		defer b.wg.Done()
		for _, sub := range handlers {
			if err := invoke(ctx, evt, sub); err != nil {
				b.logFailure(evt, sub.name, err)
			}
		}
	}()
}

func (b *bus) HandlerNames(eventType event.Type) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs[eventType]))
	for _, sub := range b.subs[eventType] {
		names = append(names, sub.name)
	}
	return names
}

// Close is safe to call once. Dispatches that raced ahead of it are waited
// for; everything after it is rejected.
func (b *bus) Close() error {
	b.mu.Lock()
	if !b.closed.CompareAndSwap(false, true) {
		b.mu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	b.mu.Unlock()

	b.wg.Wait()
	if b.logger != nil {
		b.logger.Info("Dispatcher closed")
	}
	return nil
}

func (b *bus) logFailure(evt *event.Event, handler string, err error) {
	if b.logger != nil {
		b.logger.Error("Event handler failed",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"handler", handler,
			"error", err,
		)
	}
}

// invoke shields the dispatcher from handler panics.
func invoke(ctx context.Context, evt *event.Event, sub subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.fn(ctx, evt)
}
