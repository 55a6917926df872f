package providers

import (
	"sync"
	"time"
)

// CallTracker enforces a per-client call budget over a sliding window.
// Entries older than the window are pruned under the same lock as the
// count check, so a check-then-record sequence stays consistent.
type CallTracker struct {
	maxCalls int
	window   time.Duration

	mu    sync.Mutex
	calls map[string][]time.Time
	now   func() time.Time
}

func NewCallTracker(maxCalls int, window time.Duration) *CallTracker {
	return &CallTracker{
		maxCalls: maxCalls,
		window:   window,
		calls:    make(map[string][]time.Time),
		now:      time.Now,
	}
}

// CanMakeCall reports whether the client still has budget, and how many
// calls remain before recording a new one.
func (t *CallTracker) CanMakeCall(clientID string) (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.prune(clientID)
	remaining := t.maxCalls - len(recent)
	if remaining < 0 {
		remaining = 0
	}
	return len(recent) < t.maxCalls, remaining
}

// RecordCall consumes one unit of the client's budget.
func (t *CallTracker) RecordCall(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.prune(clientID)
	t.calls[clientID] = append(recent, t.now())
}

// Remaining returns the client's current budget without consuming it.
func (t *CallTracker) Remaining(clientID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.maxCalls - len(t.prune(clientID))
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// prune drops entries older than the window. Caller must hold the lock.
func (t *CallTracker) prune(clientID string) []time.Time {
	cutoff := t.now().Add(-t.window)
	kept := t.calls[clientID][:0]
	for _, at := range t.calls[clientID] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(t.calls, clientID)
		return nil
	}
	t.calls[clientID] = kept
	return kept
}
