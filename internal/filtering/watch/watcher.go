// Package watch batches page mutations for the filter engine. Added nodes
// are deduplicated into a pending set and handed over as one batch per
// debounce window, so a burst of insertions costs one scan pass and one
// badge update, not one per element.
package watch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/johnharris85/fab-content-filter/internal/dom"
	"github.com/johnharris85/fab-content-filter/internal/filtering/metrics"
)

// ProcessFunc receives one deduplicated batch of still-attached elements.
type ProcessFunc func(batch []dom.Element)

// Frame schedules a func on the next paint-aligned callback. The browser
// layer uses requestAnimationFrame; headless runs just invoke directly.
type Frame func(fn func())

// Watcher collects added nodes and flushes them through a debounce window.
type Watcher struct {
	delay   time.Duration
	sched   Scheduler
	frame   Frame
	process ProcessFunc
	log     *slog.Logger

	mu      sync.Mutex
	pending map[string]dom.Element
}

// New creates a watcher. A nil frame means "run immediately".
func New(delay time.Duration, sched Scheduler, frame Frame, process ProcessFunc, log *slog.Logger) *Watcher {
	if frame == nil {
		frame = func(fn func()) { fn() }
	}
	return &Watcher{
		delay:   delay,
		sched:   sched,
		frame:   frame,
		process: process,
		log:     log.With("component", "watch"),
		pending: make(map[string]dom.Element),
	}
}

// Enqueue adds freshly inserted elements to the pending set and restarts
// the debounce window. Safe to call from the mutation observer callback.
func (w *Watcher) Enqueue(added []dom.Element) {
	if len(added) == 0 {
		return
	}

	w.mu.Lock()
	for _, el := range added {
		w.pending[dom.Identify(el)] = el
	}
	n := len(w.pending)
	w.mu.Unlock()

	w.log.Debug("mutation batch queued", "pending", n)
	w.sched.Schedule(w.delay, func() {
		w.frame(w.flush)
	})
}

// flush snapshots and clears the pending set, drops detached nodes, and
// hands the rest to the process func.
func (w *Watcher) flush() {
	w.mu.Lock()
	snapshot := w.pending
	w.pending = make(map[string]dom.Element)
	w.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	batch := make([]dom.Element, 0, len(snapshot))
	for _, el := range snapshot {
		if !el.Connected() {
			continue
		}
		batch = append(batch, el)
	}
	if len(batch) == 0 {
		return
	}

	metrics.MutationBatches.Inc()
	w.process(batch)
}

// Stop cancels any pending flush and drops queued nodes.
func (w *Watcher) Stop() {
	w.sched.Stop()
	w.mu.Lock()
	w.pending = make(map[string]dom.Element)
	w.mu.Unlock()
}
