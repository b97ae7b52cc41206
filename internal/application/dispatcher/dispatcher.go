package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// ErrClosed is returned when dispatching on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes session events to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name for debugging
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// SubscribeAll registers a named handler for every event type,
	// including types added after registration
	SubscribeAll(name string, handler Handler)

	// Unsubscribe removes the named handler for one event type
	Unsubscribe(eventType event.Type, name string)

	// UnsubscribeAll removes every subscription registered under name
	UnsubscribeAll(name string)

	// Dispatch runs every handler for the event in registration order.
	// A failing handler does not stop the others; all failures are joined.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs handlers on their own goroutines and returns immediately
	DispatchAsync(ctx context.Context, evt *event.Event)

	ListHandlers(eventType event.Type) []HandlerInfo

	// Close shuts down the dispatcher and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// subscription is a handler plus its registration sequence, which orders
// typed and wildcard handlers against each other
type subscription struct {
	seq  uint64
	info HandlerInfo
}

type eventDispatcher struct {
	mu       sync.RWMutex
	seq      uint64
	byType   map[event.Type][]subscription
	wildcard []subscription
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		byType: make(map[event.Type][]subscription),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe names the handler after its position among the type's handlers
func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("handler-%d", len(d.byType[eventType]))
	d.mu.RUnlock()

	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.seq++
	d.byType[eventType] = append(d.byType[eventType], subscription{
		seq:  d.seq,
		info: HandlerInfo{Name: name, EventType: eventType, Handler: handler},
	})
	d.mu.Unlock()

	d.logger.Debug("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) SubscribeAll(name string, handler Handler) {
	d.mu.Lock()
	d.seq++
	d.wildcard = append(d.wildcard, subscription{
		seq:  d.seq,
		info: HandlerInfo{Name: name, Handler: handler, Wildcard: true},
	})
	d.mu.Unlock()

	d.logger.Debug("Wildcard handler registered", "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byType[eventType] = without(d.byType[eventType], name)
}

func (d *eventDispatcher) UnsubscribeAll(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.wildcard = without(d.wildcard, name)
	for t, subs := range d.byType {
		d.byType[t] = without(subs, name)
	}
}

func without(subs []subscription, name string) []subscription {
	kept := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.info.Name != name {
			kept = append(kept, s)
		}
	}
	return kept
}

// handlersFor merges typed and wildcard handlers in registration order.
// Wildcard entries are stamped with the event type being dispatched.
func (d *eventDispatcher) handlersFor(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	subs := make([]subscription, 0, len(d.byType[eventType])+len(d.wildcard))
	subs = append(subs, d.byType[eventType]...)
	subs = append(subs, d.wildcard...)
	d.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].seq < subs[j].seq })

	out := make([]HandlerInfo, len(subs))
	for i, s := range subs {
		out[i] = s.info
		out[i].EventType = eventType
	}
	return out
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	handlers := d.handlersFor(evt.Type)
	d.logger.Debug("Dispatching event",
		"event_type", evt.Type,
		"event_id", evt.ID,
		"session_id", evt.SessionID,
		"handler_count", len(handlers))

	var errs []error
	for _, info := range handlers {
		if err := d.run(ctx, evt, info); err != nil {
			d.logger.Error("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"handler_scope", info.Scope(),
				"error", err)
			errs = append(errs, fmt.Errorf("handler %s failed: %w", info.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if d.closed.Load() {
		d.logger.Error("Dropped async event on closed dispatcher",
			"event_type", evt.Type,
			"event_id", evt.ID)
		return
	}

	for _, info := range d.handlersFor(evt.Type) {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()
			if err := d.run(ctx, evt, h); err != nil {
				d.logger.Error("Async handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", h.Name,
					"error", err)
			}
		}(info)
	}
}

// ListHandlers returns handler metadata without the functions themselves
func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	handlers := d.handlersFor(eventType)
	for i := range handlers {
		handlers[i].Handler = nil
	}
	return handlers
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	d.wg.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}

// run calls the handler, turning a panic into an error
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.logger.Error("Handler panic recovered",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", info.Name,
				"panic", r)
		}
	}()
	return info.Handler(ctx, evt)
}
