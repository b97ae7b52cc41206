package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/jobrunner"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/application/reply"
	"github.com/garyjia/fintel-ai/internal/application/scheduler"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// DefaultMaxToasts bounds a session's undelivered notifications
const DefaultMaxToasts = 50

// Session is one browser's view state: its uploads, its conversation and
// the toasts not yet shown.
type Session struct {
	ID      string
	Uploads *jobrunner.UploadRunner
	Chat    *jobrunner.ChatRunner

	mu        sync.Mutex
	toasts    []entity.Notification
	maxToasts int
	createdAt time.Time
	lastSeen  time.Time
	closed    bool
}

// Enqueue adds a toast, dropping the oldest when the queue is full
func (s *Session) Enqueue(n entity.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.toasts) >= s.maxToasts {
		s.toasts = s.toasts[1:]
	}
	s.toasts = append(s.toasts, n)
}

// DrainToasts returns and clears the pending toasts in creation order
func (s *Session) DrainToasts() []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.toasts
	s.toasts = nil
	if out == nil {
		out = []entity.Notification{}
	}
	return out
}

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionConfig holds what every new session starts with
type SessionConfig struct {
	Jobs      jobrunner.Config
	Seeds     []entity.SeedUpload
	MaxToasts int
	Injector  jobrunner.FailureInjector
}

// SessionRegistry owns all live sessions. It is passed explicitly to the
// services that need per-session state.
type SessionRegistry struct {
	sched     scheduler.Scheduler
	publisher port.EventPublisher
	responder reply.Responder
	cfg       SessionConfig
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(sched scheduler.Scheduler, publisher port.EventPublisher, responder reply.Responder, cfg SessionConfig, logger *zap.Logger) *SessionRegistry {
	if cfg.MaxToasts <= 0 {
		cfg.MaxToasts = DefaultMaxToasts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		sched:     sched,
		publisher: publisher,
		responder: responder,
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// GetOrCreate returns the session for id, opening a new one when id is
// unknown or not a UUID. created reports whether a session was opened.
func (r *SessionRegistry) GetOrCreate(id string) (sess *Session, created bool) {
	now := r.sched.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return s, false
	}

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	opts := []jobrunner.UploadOption{jobrunner.WithUploadLogger(r.logger)}
	if r.cfg.Injector != nil {
		opts = append(opts, jobrunner.WithFailureInjector(r.cfg.Injector))
	}
	uploads := jobrunner.NewUploadRunner(id, r.sched, r.publisher, r.cfg.Jobs, opts...)
	uploads.Seed(r.cfg.Seeds)

	sess = &Session{
		ID:        id,
		Uploads:   uploads,
		Chat:      jobrunner.NewChatRunner(id, r.sched, r.publisher, r.responder, r.cfg.Jobs, r.logger),
		maxToasts: r.cfg.MaxToasts,
		createdAt: now,
		lastSeen:  now,
	}
	r.sessions[id] = sess

	r.logger.Info("Session opened", zap.String("session_id", id))
	return sess, true
}

// Get returns a live session without creating one
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, entity.ErrNotFound)
	}
	return s, nil
}

// Count returns the number of live sessions
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close cancels every pending timer of the session and forgets it
func (r *SessionRegistry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, entity.ErrNotFound)
	}
	r.shutdown(ctx, s, "closed")
	return nil
}

// CloseIdle closes sessions not seen for ttl and returns how many were closed
func (r *SessionRegistry) CloseIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := r.sched.Now().Add(-ttl)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	sort.Slice(idle, func(i, j int) bool { return idle[i].ID < idle[j].ID })
	for _, s := range idle {
		r.shutdown(ctx, s, "idle")
	}
	return len(idle)
}

// CloseAll closes every session, used on shutdown
func (r *SessionRegistry) CloseAll(ctx context.Context) int {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		r.shutdown(ctx, s, "shutdown")
	}
	return len(all)
}

func (r *SessionRegistry) shutdown(ctx context.Context, s *Session, reason string) {
	uploads := s.Uploads.Close()
	replies := s.Chat.Close()

	s.mu.Lock()
	s.closed = true
	s.toasts = nil
	s.mu.Unlock()

	r.logger.Info("Session closed",
		zap.String("session_id", s.ID),
		zap.String("reason", reason),
		zap.Int("cancelled_uploads", uploads),
		zap.Int("cancelled_replies", replies))

	if r.publisher == nil {
		return
	}
	evt := event.NewEvent(event.TypeSessionClosed, s.ID, "", map[string]interface{}{
		"reason":            reason,
		"cancelled_uploads": uploads,
		"cancelled_replies": replies,
	})
	if err := r.publisher.Publish(ctx, evt); err != nil {
		r.logger.Error("Failed to publish session event", zap.Error(err))
	}
}
