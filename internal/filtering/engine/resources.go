package engine

import "sync"

// Resources records teardown for everything the engine attaches to the
// page: the mutation observer, pending timers, the injected stylesheet.
// One Cleanup call releases all of it.
type Resources struct {
	mu       sync.Mutex
	releases []func()
}

// NewResources creates an empty record.
func NewResources() *Resources {
	return &Resources{}
}

// Track records a release func to run on cleanup.
func (r *Resources) Track(release func()) {
	if release == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases = append(r.releases, release)
}

// Cleanup runs every recorded release in reverse registration order and
// clears the record, so repeated calls are no-ops.
func (r *Resources) Cleanup() {
	r.mu.Lock()
	releases := r.releases
	r.releases = nil
	r.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}
