package jobrunner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/application/scheduler"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
	"github.com/garyjia/fintel-ai/internal/domain/workflow"
)

// FailureInjector decides whether an upload fails at settle time.
// Returning nil lets the upload complete.
type FailureInjector func(item entity.UploadItem) error

// FailAll fails every upload
func FailAll() FailureInjector {
	return func(entity.UploadItem) error { return entity.ErrSimulatedFailure }
}

// FailNamed fails uploads whose name is in names
func FailNamed(names ...string) FailureInjector {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(item entity.UploadItem) error {
		if set[item.Name] {
			return entity.ErrSimulatedFailure
		}
		return nil
	}
}

type uploadJob struct {
	item    entity.UploadItem
	machine workflow.StateMachine
	task    scheduler.Task
}

// UploadRunner owns one session's upload list
type UploadRunner struct {
	sessionID string
	sched     scheduler.Scheduler
	publisher port.EventPublisher
	cfg       Config
	logger    *zap.Logger
	inject    FailureInjector
	rng       *rand.Rand

	mu     sync.Mutex
	order  []*uploadJob // newest first
	byID   map[string]*uploadJob
	closed bool
}

// UploadOption configures an UploadRunner
type UploadOption func(*UploadRunner)

// WithFailureInjector installs a failure hook. The default always succeeds.
func WithFailureInjector(f FailureInjector) UploadOption {
	return func(r *UploadRunner) { r.inject = f }
}

// WithRand makes accuracy draws reproducible
func WithRand(rng *rand.Rand) UploadOption {
	return func(r *UploadRunner) { r.rng = rng }
}

// WithUploadLogger sets the logger
func WithUploadLogger(logger *zap.Logger) UploadOption {
	return func(r *UploadRunner) { r.logger = logger }
}

// NewUploadRunner creates a runner for sessionID
func NewUploadRunner(sessionID string, sched scheduler.Scheduler, publisher port.EventPublisher, cfg Config, opts ...UploadOption) *UploadRunner {
	r := &UploadRunner{
		sessionID: sessionID,
		sched:     sched,
		publisher: publisher,
		cfg:       cfg,
		logger:    zap.NewNop(),
		byID:      make(map[string]*uploadJob),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seed appends pre-existing rows below any submitted items. Seeded rows are never scheduled.
func (r *UploadRunner) Seed(seeds []entity.SeedUpload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.sched.Now()
	for _, s := range seeds {
		job := &uploadJob{
			item: entity.UploadItem{
				ID:          uuid.NewString(),
				Name:        s.Name,
				SubmittedAt: now.Add(-time.Duration(s.AgeMins) * time.Minute),
				Status:      s.Status,
				Progress:    s.Progress,
				Accuracy:    s.Accuracy,
			},
			machine: workflow.NewUploadMachine(s.Status),
		}
		r.order = append(r.order, job)
		r.byID[job.item.ID] = job
	}
}

// SubmitUpload creates one pending item per file and schedules each settle
// after base delay plus index times stagger. Items are returned in
// submission order and placed at the head of the list.
func (r *UploadRunner) SubmitUpload(ctx context.Context, files []entity.FileMeta) ([]entity.UploadItem, error) {
	if len(files) == 0 {
		return nil, entity.NewValidationError("files", "at least one file is required")
	}
	for i, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, entity.NewValidationError("files", fmt.Sprintf("file %d has no name", i))
		}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, entity.ErrSessionClosed
	}

	now := r.sched.Now()
	batch := make([]*uploadJob, 0, len(files))
	items := make([]entity.UploadItem, 0, len(files))
	for i, f := range files {
		id := uuid.NewString()
		job := &uploadJob{
			item: entity.UploadItem{
				ID:          id,
				Name:        f.Name,
				SubmittedAt: now,
				Status:      workflow.StatePending,
				Progress:    0,
				SizeBytes:   f.SizeBytes,
				ContentType: f.ContentType,
				Pages:       f.Pages,
			},
			machine: workflow.NewUploadMachine(workflow.StatePending),
		}
		job.task = r.sched.Schedule(r.cfg.SettleDelay(i), func() { r.settle(id) })

		batch = append(batch, job)
		items = append(items, job.item)
		r.byID[id] = job
	}
	r.order = append(batch, r.order...)
	r.mu.Unlock()

	r.logger.Info("Uploads submitted",
		zap.String("session_id", r.sessionID),
		zap.Int("count", len(items)))

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	r.publish(ctx, event.NewEvent(event.TypeUploadSubmitted, r.sessionID, "", map[string]interface{}{
		"count": len(items),
		"names": names,
	}))

	return items, nil
}

// settle runs on the scheduler thread
func (r *UploadRunner) settle(id string) {
	ctx := context.Background()

	r.mu.Lock()
	job, ok := r.byID[id]
	if !ok || r.closed {
		r.mu.Unlock()
		return
	}
	job.task = nil

	var injected error
	if r.inject != nil {
		injected = r.inject(job.item)
	}

	var evt *event.Event
	if injected != nil {
		if err := job.machine.Fire(ctx, workflow.TriggerFail); err != nil {
			r.mu.Unlock()
			r.logger.Warn("Upload already settled", zap.String("upload_id", id), zap.Error(err))
			return
		}
		job.item.Status = job.machine.State()
		job.item.Error = injected.Error()
		evt = event.NewEvent(event.TypeUploadFailed, r.sessionID, id, map[string]interface{}{
			"name":  job.item.Name,
			"error": job.item.Error,
		})
	} else {
		if err := job.machine.Fire(ctx, workflow.TriggerSettle); err != nil {
			r.mu.Unlock()
			r.logger.Warn("Upload already settled", zap.String("upload_id", id), zap.Error(err))
			return
		}
		job.item.Status = job.machine.State()
		job.item.Progress = 100
		job.item.Accuracy = r.drawAccuracy()
		evt = event.NewEvent(event.TypeUploadSettled, r.sessionID, id, map[string]interface{}{
			"name":     job.item.Name,
			"accuracy": job.item.Accuracy,
		})
	}
	status := job.item.Status
	r.mu.Unlock()

	r.logger.Debug("Upload settled",
		zap.String("session_id", r.sessionID),
		zap.String("upload_id", id),
		zap.String("status", status.String()))

	r.publish(ctx, evt)
}

// drawAccuracy picks uniformly from the inclusive accuracy band. Callers hold r.mu.
func (r *UploadRunner) drawAccuracy() int {
	span := r.cfg.AccuracyMax - r.cfg.AccuracyMin + 1
	if r.rng != nil {
		return r.cfg.AccuracyMin + r.rng.IntN(span)
	}
	return r.cfg.AccuracyMin + rand.IntN(span)
}

// Cancel stops the pending settle of an item. The item stays pending.
// It reports false when there was nothing left to cancel.
func (r *UploadRunner) Cancel(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.byID[id]
	if !ok {
		return false, fmt.Errorf("upload %s: %w", id, entity.ErrNotFound)
	}
	if job.task == nil {
		return false, nil
	}
	cancelled := job.task.Cancel()
	job.task = nil
	return cancelled, nil
}

// List returns the items, newest first
func (r *UploadRunner) List() []entity.UploadItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.UploadItem, len(r.order))
	for i, job := range r.order {
		out[i] = job.item
	}
	return out
}

// Get returns one item by id
func (r *UploadRunner) Get(id string) (entity.UploadItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.byID[id]
	if !ok {
		return entity.UploadItem{}, fmt.Errorf("upload %s: %w", id, entity.ErrNotFound)
	}
	return job.item, nil
}

// Close cancels every pending settle and rejects further submissions.
// It returns the number of cancelled tasks.
func (r *UploadRunner) Close() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0
	}
	r.closed = true

	n := 0
	for _, job := range r.order {
		if job.task != nil && job.task.Cancel() {
			n++
		}
		job.task = nil
	}
	return n
}

func (r *UploadRunner) publish(ctx context.Context, evt *event.Event) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, evt); err != nil {
		r.logger.Error("Failed to publish upload event",
			zap.String("event_type", evt.Type.String()),
			zap.Error(err))
	}
}
