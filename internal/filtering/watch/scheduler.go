package watch

import (
	"sync"
	"time"
)

// Scheduler is a cancellable deferred task slot. Schedule replaces any
// in-flight task: the queue semantics are last-burst-wins, never FIFO.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
	Stop()
}

// TimerScheduler runs deferred tasks on the Go runtime timer. Used by the
// harness and the tests; the browser layer substitutes setTimeout.
type TimerScheduler struct {
	mu    sync.Mutex
	timer *time.Timer
}

// NewTimerScheduler creates an empty scheduler slot.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// Schedule arms the slot, cancelling any task already pending.
func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, fn)
}

// Stop cancels the pending task, if any.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
