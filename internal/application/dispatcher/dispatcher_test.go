package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func newEvent(t event.Type) *event.Event {
	return event.NewEvent(t, "sess-1", "subject-1", nil)
}

func TestSubscribe(t *testing.T) {
	t.Run("subscribes handler with auto-generated name", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(event.TypeUploadSettled, func(ctx context.Context, evt *event.Event) error { return nil })
		d.Subscribe(event.TypeUploadSettled, func(ctx context.Context, evt *event.Event) error { return nil })

		handlers := d.ListHandlers(event.TypeUploadSettled)
		if len(handlers) != 2 {
			t.Fatalf("expected 2 handlers, got %d", len(handlers))
		}
		if handlers[0].Name != "handler-0" || handlers[1].Name != "handler-1" {
			t.Errorf("unexpected names %q, %q", handlers[0].Name, handlers[1].Name)
		}
	})

	t.Run("subscribe all covers every event type", func(t *testing.T) {
		d := NewDispatcher()
		d.SubscribeAll("ws-hub", func(ctx context.Context, evt *event.Event) error { return nil })

		for _, typ := range event.AllTypes() {
			handlers := d.ListHandlers(typ)
			if len(handlers) != 1 || handlers[0].Name != "ws-hub" {
				t.Errorf("%s: handlers = %+v", typ, handlers)
			}
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }
	d.SubscribeNamed(event.TypeChatMessageSent, "keep", noop)
	d.SubscribeNamed(event.TypeChatMessageSent, "drop", noop)

	d.Unsubscribe(event.TypeChatMessageSent, "drop")

	handlers := d.ListHandlers(event.TypeChatMessageSent)
	if len(handlers) != 1 || handlers[0].Name != "keep" {
		t.Errorf("handlers after unsubscribe = %+v", handlers)
	}
}

func TestUnsubscribeAll(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }
	d.SubscribeAll("ws-1", noop)
	d.SubscribeNamed(event.TypeSessionClosed, "ws-1", noop)
	d.SubscribeNamed(event.TypeSessionClosed, "toast", noop)

	d.UnsubscribeAll("ws-1")

	handlers := d.ListHandlers(event.TypeSessionClosed)
	if len(handlers) != 1 || handlers[0].Name != "toast" {
		t.Errorf("handlers after unsubscribe all = %+v", handlers)
	}
	if got := d.ListHandlers(event.TypeUploadSettled); len(got) != 0 {
		t.Errorf("wildcard should be gone, got %+v", got)
	}
}

func TestDispatch_WildcardKeepsRegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string
	record := func(name string) Handler {
		return func(ctx context.Context, evt *event.Event) error {
			order = append(order, name)
			return nil
		}
	}
	d.SubscribeNamed(event.TypeUploadSubmitted, "first", record("first"))
	d.SubscribeAll("all", record("all"))
	d.SubscribeNamed(event.TypeUploadSubmitted, "last", record("last"))

	if err := d.Dispatch(context.Background(), newEvent(event.TypeUploadSubmitted)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"first", "all", "last"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}

	for _, h := range d.ListHandlers(event.TypeUploadSubmitted) {
		if h.EventType != event.TypeUploadSubmitted {
			t.Errorf("%s: event type = %q", h.Name, h.EventType)
		}
		if h.Wildcard != (h.Name == "all") {
			t.Errorf("%s: wildcard = %v", h.Name, h.Wildcard)
		}
	}
}

func TestHandlerInfo_Scope(t *testing.T) {
	tests := []struct {
		name string
		info HandlerInfo
		want string
	}{
		{"typed", HandlerInfo{EventType: event.TypeUploadSettled}, event.TypeUploadSettled.String()},
		{"wildcard", HandlerInfo{EventType: event.TypeUploadSettled, Wildcard: true}, "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Scope(); got != tt.want {
				t.Errorf("Scope() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	t.Run("dispatches to all handlers in order", func(t *testing.T) {
		d := NewDispatcher()
		var order []string
		d.SubscribeNamed(event.TypeUploadSubmitted, "a", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "a")
			return nil
		})
		d.SubscribeNamed(event.TypeUploadSubmitted, "b", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "b")
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvent(event.TypeUploadSubmitted)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "a" || order[1] != "b" {
			t.Errorf("order = %v, want [a b]", order)
		}
	})

	t.Run("keeps running after a handler fails", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		errBoom := errors.New("boom")
		var reached bool
		d.SubscribeNamed(event.TypeUploadFailed, "failing", func(ctx context.Context, evt *event.Event) error {
			return errBoom
		})
		d.SubscribeNamed(event.TypeUploadFailed, "after", func(ctx context.Context, evt *event.Event) error {
			reached = true
			return nil
		})

		err := d.Dispatch(context.Background(), newEvent(event.TypeUploadFailed))
		if !errors.Is(err, errBoom) {
			t.Errorf("error = %v, want wrapped boom", err)
		}
		if !reached {
			t.Error("second handler should still run")
		}
		if logger.ErrorCount() != 1 {
			t.Errorf("error logs = %d, want 1", logger.ErrorCount())
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		d := NewDispatcher(WithLogger(&mockLogger{}))
		d.Subscribe(event.TypeSettingsSaved, func(ctx context.Context, evt *event.Event) error {
			panic("kaboom")
		})

		if err := d.Dispatch(context.Background(), newEvent(event.TypeSettingsSaved)); err == nil {
			t.Error("expected error from panicking handler")
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		_ = d.Close()

		err := d.Dispatch(context.Background(), newEvent(event.TypeSettingsSaved))
		if !errors.Is(err, ErrClosed) {
			t.Errorf("error = %v, want ErrClosed", err)
		}
	})

	t.Run("no handlers is not an error", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Dispatch(context.Background(), newEvent(event.TypeHSNImported)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("runs handlers and close waits for them", func(t *testing.T) {
		d := NewDispatcher()
		var count atomic.Int32
		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeChatReplyProduced, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				count.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newEvent(event.TypeChatReplyProduced))
		if err := d.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
		if count.Load() != 3 {
			t.Errorf("handled = %d, want 3", count.Load())
		}
	})

	t.Run("does not dispatch when dispatcher is closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Bool
		d.Subscribe(event.TypeChatReplyProduced, func(ctx context.Context, evt *event.Event) error {
			called.Store(true)
			return nil
		})
		_ = d.Close()

		d.DispatchAsync(context.Background(), newEvent(event.TypeChatReplyProduced))
		time.Sleep(10 * time.Millisecond)

		if called.Load() {
			t.Error("handler must not run after close")
		}
		if logger.ErrorCount() != 1 {
			t.Errorf("error logs = %d, want 1", logger.ErrorCount())
		}
	})
}

func TestListHandlers_HidesFunctions(t *testing.T) {
	d := NewDispatcher()
	d.SubscribeNamed(event.TypeReportDownloaded, "toast", func(ctx context.Context, evt *event.Event) error { return nil })

	for _, h := range d.ListHandlers(event.TypeReportDownloaded) {
		if h.Handler != nil {
			t.Error("ListHandlers() should not expose handler functions")
		}
	}
	if got := d.ListHandlers(event.TypeSessionClosed); len(got) != 0 {
		t.Errorf("expected no handlers, got %d", len(got))
	}
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
}

func TestConcurrentDispatch(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int64
	d.Subscribe(event.TypeNotificationCreated, func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), newEvent(event.TypeNotificationCreated))
		}()
	}
	wg.Wait()

	if count.Load() != 50 {
		t.Errorf("handled = %d, want 50", count.Load())
	}
}
