package port

import (
	"context"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// EventPublisher hands domain events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// AlertSender forwards important notifications to an external chat channel
type AlertSender interface {
	SendAlert(ctx context.Context, title, message string) error
}

// DocumentInspector reads file metadata (type, size, pages) without extracting content
type DocumentInspector interface {
	Inspect(name string, content []byte) (*entity.FileMeta, error)
	// Check validates name and size of a file submitted without its body
	Check(meta *entity.FileMeta) error
}
