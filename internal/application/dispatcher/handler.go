package dispatcher

import (
	"context"

	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// Handler reacts to one session event. A returned error is logged and
// joined into Dispatch's result; it never stops the remaining handlers.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler as ListHandlers reports it.
// EventType is the type being listed, also for wildcard entries.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
	// Wildcard marks handlers registered through SubscribeAll, such as a
	// websocket connection forwarding every event of its session.
	Wildcard  bool
}

// Scope names what the handler listens to
func (h HandlerInfo) Scope() string {
	if h.Wildcard {
		return "*"
	}
	return h.EventType.String()
}
