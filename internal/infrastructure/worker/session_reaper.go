package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleCloser closes sessions that have been idle for longer than ttl
type IdleCloser interface {
	CloseIdle(ctx context.Context, ttl time.Duration) int
}

// SessionReaper periodically closes idle sessions so their pending timers
// do not outlive the browser tab
type SessionReaper struct {
	sessions IdleCloser
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSessionReaper creates a reaper that sweeps every interval
func NewSessionReaper(sessions IdleCloser, ttl, interval time.Duration, logger *zap.Logger) *SessionReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionReaper{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

func (r *SessionReaper) Name() string {
	return "SessionReaper"
}

// Start launches the sweep loop
func (r *SessionReaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("session reaper is already running")
	}
	if r.ttl <= 0 || r.interval <= 0 {
		return fmt.Errorf("session reaper needs a positive ttl and interval")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	r.logger.Info("SessionReaper started",
		zap.Duration("ttl", r.ttl),
		zap.Duration("interval", r.interval))

	go r.loop(loopCtx, r.done)
	return nil
}

// Stop ends the loop and waits for an in-flight sweep
func (r *SessionReaper) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
	r.logger.Info("SessionReaper stopped")
	return nil
}

func (r *SessionReaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the number of sessions closed
func (r *SessionReaper) Sweep(ctx context.Context) int {
	n := r.sessions.CloseIdle(ctx, r.ttl)
	if n > 0 {
		r.logger.Info("Idle sessions closed", zap.Int("count", n))
	}
	return n
}
