package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/fintel-ai/internal/application/dispatcher"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// Toast messages shown after user actions
const (
	MsgUploadSubmitted  = "%d file(s) uploaded successfully"
	MsgUploadFailed     = "Failed to process %s"
	MsgReportGenerating = "Report generation started. You'll be notified when ready."
	MsgReportDownloaded = "Report downloaded as %s"
	MsgSettingsSaved    = "Settings saved successfully"
	MsgHSNImported      = "%d HSN mapping(s) imported"
)

const (
	alertTimeout            = 10 * time.Second
	notificationHandlerName = "notifications"
)

// NotificationService turns domain events into per-session toasts.
// Error toasts are also forwarded to the alert sender when one is configured.
type NotificationService struct {
	sessions   *SessionRegistry
	dispatcher dispatcher.Dispatcher
	alerts     port.AlertSender
	now        func() time.Time
	logger     Logger

	wg sync.WaitGroup
}

// NewNotificationService creates the service. alerts may be nil.
func NewNotificationService(sessions *SessionRegistry, d dispatcher.Dispatcher, alerts port.AlertSender, logger Logger) *NotificationService {
	return &NotificationService{
		sessions:   sessions,
		dispatcher: d,
		alerts:     alerts,
		now:        time.Now,
		logger:     orNop(logger),
	}
}

// Register subscribes the toast handlers
func (s *NotificationService) Register() {
	s.dispatcher.SubscribeNamed(event.TypeUploadSubmitted, notificationHandlerName, s.onUploadSubmitted)
	s.dispatcher.SubscribeNamed(event.TypeUploadFailed, notificationHandlerName, s.onUploadFailed)
	s.dispatcher.SubscribeNamed(event.TypeReportGenerationStarted, notificationHandlerName, s.onReportGenerating)
	s.dispatcher.SubscribeNamed(event.TypeReportDownloaded, notificationHandlerName, s.onReportDownloaded)
	s.dispatcher.SubscribeNamed(event.TypeSettingsSaved, notificationHandlerName, s.onSettingsSaved)
	s.dispatcher.SubscribeNamed(event.TypeHSNImported, notificationHandlerName, s.onHSNImported)
}

func (s *NotificationService) onUploadSubmitted(ctx context.Context, evt *event.Event) error {
	return s.Notify(ctx, evt.SessionID, entity.LevelSuccess,
		fmt.Sprintf(MsgUploadSubmitted, evt.GetPayloadInt("count")))
}

func (s *NotificationService) onUploadFailed(ctx context.Context, evt *event.Event) error {
	return s.Notify(ctx, evt.SessionID, entity.LevelError,
		fmt.Sprintf(MsgUploadFailed, evt.GetPayloadString("name")))
}

func (s *NotificationService) onReportGenerating(ctx context.Context, evt *event.Event) error {
	return s.Notify(ctx, evt.SessionID, entity.LevelSuccess, MsgReportGenerating)
}

func (s *NotificationService) onReportDownloaded(ctx context.Context, evt *event.Event) error {
	return s.Notify(ctx, evt.SessionID, entity.LevelSuccess,
		fmt.Sprintf(MsgReportDownloaded, strings.ToUpper(evt.GetPayloadString("format"))))
}

func (s *NotificationService) onSettingsSaved(ctx context.Context, evt *event.Event) error {
	return s.Notify(ctx, evt.SessionID, entity.LevelSuccess, MsgSettingsSaved)
}

func (s *NotificationService) onHSNImported(ctx context.Context, evt *event.Event) error {
	return s.Notify(ctx, evt.SessionID, entity.LevelSuccess,
		fmt.Sprintf(MsgHSNImported, evt.GetPayloadInt("rows")))
}

// Notify queues a toast on the session and announces it. A session that no
// longer exists is skipped silently.
func (s *NotificationService) Notify(ctx context.Context, sessionID string, level entity.NotificationLevel, message string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil
	}

	n := entity.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: s.now(),
	}
	sess.Enqueue(n)

	if level == entity.LevelError && s.alerts != nil {
		s.forward(n)
	}

	evt := event.NewEvent(event.TypeNotificationCreated, sessionID, n.ID, map[string]interface{}{
		"level":   string(n.Level),
		"message": n.Message,
	})
	if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Failed to announce notification", "session_id", sessionID, "error", err)
	}
	return nil
}

// forward sends the alert off the caller's goroutine; the caller may be the scheduler thread
func (s *NotificationService) forward(n entity.Notification) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		if err := s.alerts.SendAlert(ctx, "FINTEL alert", n.Message); err != nil {
			s.logger.Error("Failed to forward alert", "notification_id", n.ID, "error", err)
			return
		}
		s.logger.Info("Alert forwarded", "notification_id", n.ID)
	}()
}

// Drain returns and clears the session's pending toasts
func (s *NotificationService) Drain(sessionID string) ([]entity.Notification, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.DrainToasts(), nil
}

// Wait blocks until forwarded alerts are done
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
