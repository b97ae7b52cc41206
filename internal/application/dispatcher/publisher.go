package dispatcher

import (
	"context"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

type publisher struct {
	d Dispatcher
}

// AsPublisher exposes d through the EventPublisher port
func AsPublisher(d Dispatcher) port.EventPublisher {
	return publisher{d: d}
}

func (p publisher) Publish(ctx context.Context, evt *event.Event) error {
	return p.d.Dispatch(ctx, evt)
}
