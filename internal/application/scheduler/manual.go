package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// ManualScheduler keeps a virtual clock. Callbacks run synchronously inside
// Advance, ordered by due time and then by submission order.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	queue taskHeap
}

// NewManualScheduler creates a virtual clock starting at start
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) Task {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &task{id: s.seq, due: s.now.Add(delay), fn: fn}
	heap.Push(&s.queue, t)
	return t
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.queue {
		if t.pending() {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every task that falls due.
// Tasks scheduled by callbacks run in the same call if they fall due within d.
// It returns the number of callbacks executed.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	ran := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].due.After(target) {
			s.now = target
			s.mu.Unlock()
			return ran
		}
		t := heap.Pop(&s.queue).(*task)
		if t.due.After(s.now) {
			s.now = t.due
		}
		s.mu.Unlock()

		if t.claim() {
			t.fn()
			ran++
		}
	}
}

// taskHeap orders tasks by due time, ties broken by id
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].id < h[j].id
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
