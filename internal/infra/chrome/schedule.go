//go:build js && wasm

package chrome

import (
	"syscall/js"
	"time"
)

// TimeoutScheduler implements watch.Scheduler over window.setTimeout.
// Rescheduling clears the pending timeout first, so only the last task
// of a burst runs. Single-threaded like everything on the page; no
// locking needed.
type TimeoutScheduler struct {
	timer   js.Value
	fn      js.Func
	pending bool
}

// NewTimeoutScheduler creates a scheduler.
func NewTimeoutScheduler() *TimeoutScheduler {
	return &TimeoutScheduler{}
}

// Schedule implements watch.Scheduler.
func (s *TimeoutScheduler) Schedule(delay time.Duration, task func()) {
	s.Stop()
	s.fn = js.FuncOf(func(this js.Value, args []js.Value) any {
		s.pending = false
		s.fn.Release()
		task()
		return nil
	})
	s.timer = js.Global().Call("setTimeout", s.fn, delay.Milliseconds())
	s.pending = true
}

// Stop implements watch.Scheduler.
func (s *TimeoutScheduler) Stop() {
	if !s.pending {
		return
	}
	js.Global().Call("clearTimeout", s.timer)
	s.fn.Release()
	s.pending = false
}

// AnimationFrame is the watch.Frame for the browser: the flush runs on
// the next requestAnimationFrame callback so hiding aligns with paint.
func AnimationFrame(fn func()) {
	var callback js.Func
	callback = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer callback.Release()
		fn()
		return nil
	})
	js.Global().Call("requestAnimationFrame", callback)
}
