package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultQueueSize = 256

type armedTask struct {
	task  *task
	timer *time.Timer
}

// RealScheduler fires wall-clock timers into a single loop goroutine.
// It satisfies the worker lifecycle (Start, Stop, Name).
type RealScheduler struct {
	logger *zap.Logger
	queue  chan *task

	mu      sync.Mutex
	seq     uint64
	timers  map[uint64]*armedTask
	running bool
	stopped bool
	cancel  context.CancelFunc
	stopCh  chan struct{}
	done    chan struct{}
}

// NewRealScheduler creates a scheduler. Nothing runs until Start is called.
func NewRealScheduler(logger *zap.Logger) *RealScheduler {
	return &RealScheduler{
		logger: logger,
		queue:  make(chan *task, defaultQueueSize),
		timers: make(map[uint64]*armedTask),
		stopCh: make(chan struct{}),
	}
}

// Name returns the worker name for identification
func (s *RealScheduler) Name() string {
	return "JobScheduler"
}

// Start launches the loop goroutine and returns immediately
func (s *RealScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.stopped {
		return fmt.Errorf("scheduler stopped")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)

	s.logger.Info("Scheduler started", zap.Int("pending", len(s.timers)))
	return nil
}

// Stop cancels every pending timer and waits for the loop to exit.
// A stopped scheduler cannot be restarted.
func (s *RealScheduler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false

	dropped := len(s.timers)
	for id, armed := range s.timers {
		armed.timer.Stop()
		armed.task.state.CompareAndSwap(taskPending, taskCancelled)
		delete(s.timers, id)
	}
	close(s.stopCh)
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if wasRunning {
		cancel()
		<-done
	}

	s.logger.Info("Scheduler stopped", zap.Int("dropped_tasks", dropped))
	return nil
}

func (s *RealScheduler) Schedule(delay time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	due := time.Now().Add(delay)
	if s.stopped {
		return cancelledTask(s.seq, due)
	}

	t := &task{id: s.seq, due: due, fn: fn}
	t.onCancel = func() { s.release(t.id) }
	s.timers[t.id] = &armedTask{
		task:  t,
		timer: time.AfterFunc(delay, func() { s.enqueue(t) }),
	}
	return t
}

func (s *RealScheduler) Now() time.Time {
	return time.Now()
}

func (s *RealScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.timers)
	n += len(s.queue)
	return n
}

func (s *RealScheduler) release(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if armed, ok := s.timers[id]; ok {
		armed.timer.Stop()
		delete(s.timers, id)
	}
}

// enqueue runs on the timer goroutine and hands the task to the loop
func (s *RealScheduler) enqueue(t *task) {
	s.mu.Lock()
	delete(s.timers, t.id)
	s.mu.Unlock()

	select {
	case s.queue <- t:
	case <-s.stopCh:
	}
}

func (s *RealScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			s.execute(t)
		}
	}
}

func (s *RealScheduler) execute(t *task) {
	if !t.claim() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled task panicked",
				zap.Uint64("task_id", t.id),
				zap.Any("panic", r))
		}
	}()

	t.fn()
}
