// Package scheduler runs deferred callbacks on a single logical thread.
//
// Two implementations share the Scheduler interface: RealScheduler fires
// wall-clock timers into one loop goroutine, ManualScheduler keeps a virtual
// clock that tests move forward with Advance.
package scheduler

import (
	"sync/atomic"
	"time"
)

// Scheduler defers callbacks. Callbacks of one scheduler never run concurrently.
type Scheduler interface {
	// Schedule runs fn once after delay and returns a handle that can cancel it
	Schedule(delay time.Duration, fn func()) Task

	// Now returns the scheduler's notion of current time
	Now() time.Time

	// Pending returns the number of tasks that have neither run nor been cancelled
	Pending() int
}

// Task is the handle of one scheduled callback
type Task interface {
	ID() uint64
	Due() time.Time

	// Cancel prevents the callback from running. It returns false when the
	// callback already ran or was cancelled before.
	Cancel() bool
}

const (
	taskPending int32 = iota
	taskFired
	taskCancelled
)

type task struct {
	id    uint64
	due   time.Time
	fn    func()
	state atomic.Int32

	// onCancel releases scheduler resources held for the task
	onCancel func()
}

func (t *task) ID() uint64     { return t.id }
func (t *task) Due() time.Time { return t.due }

func (t *task) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	if t.onCancel != nil {
		t.onCancel()
	}
	return true
}

// claim marks the task fired; only the caller that wins the claim may run fn
func (t *task) claim() bool {
	return t.state.CompareAndSwap(taskPending, taskFired)
}

func (t *task) pending() bool {
	return t.state.Load() == taskPending
}

// cancelledTask is returned when scheduling on a stopped scheduler
func cancelledTask(id uint64, due time.Time) Task {
	t := &task{id: id, due: due}
	t.state.Store(taskCancelled)
	return t
}
