// Package quoting keeps per-session ordering for quote requests.
//
// A browsing session recomputes its quote whenever the range or guest count
// changes, and requests can overlap. Each request carries a session id and a
// monotonically increasing sequence; only the highest sequence seen for a
// session is current. Older responses are flagged stale, never merged.
package quoting

import (
	"sync"
	"time"
)

const DefaultSessionTTL = 30 * time.Minute

type session struct {
	latest   int64
	lastSeen time.Time
}

// SessionTracker resolves overlapping quote requests last-write-wins.
type SessionTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]session
	swept    time.Time
}

func NewSessionTracker(ttl time.Duration, now func() time.Time) *SessionTracker {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionTracker{ttl: ttl, now: now, sessions: make(map[string]session)}
}

// Observe registers a request and reports whether it is still current.
// A sequence equal to the latest one is a retry and stays current.
func (t *SessionTracker) Observe(id string, seq int64) bool {
	if id == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.sweepLocked(now)

	s, ok := t.sessions[id]
	if ok && seq < s.latest {
		s.lastSeen = now
		t.sessions[id] = s
		return false
	}
	t.sessions[id] = session{latest: seq, lastSeen: now}
	return true
}

// IsLatest reports whether no newer request arrived for the session since seq.
func (t *SessionTracker) IsLatest(id string, seq int64) bool {
	if id == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	return !ok || seq >= s.latest
}

func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *SessionTracker) sweepLocked(now time.Time) {
	if now.Sub(t.swept) < t.ttl/2 {
		return
	}
	t.swept = now
	for id, s := range t.sessions {
		if now.Sub(s.lastSeen) > t.ttl {
			delete(t.sessions, id)
		}
	}
}
