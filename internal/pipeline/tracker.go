package pipeline

import (
	"sort"
	"sync"
	"time"
)

// errorTracker accumulates terminal failures for export. The worker
// contract guarantees at most one report per identifier; the tracker
// does not deduplicate.
type errorTracker struct {
	mu      sync.Mutex
	entries []ErrorEntry
	now     func() time.Time
}

func newErrorTracker() *errorTracker {
	return &errorTracker{now: time.Now}
}

func (t *errorTracker) report(id int, url, reason string, class Classification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, ErrorEntry{
		Identifier: id,
		URL:        url,
		Reason:     reason,
		Class:      class,
		Timestamp:  t.now().UTC(),
	})
}

// export returns the accumulated entries ordered by identifier, so
// error output is as deterministic as record output.
func (t *errorTracker) export() []ErrorEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ErrorEntry, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

func (t *errorTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
