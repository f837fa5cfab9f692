package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"giftcounter/internal/counter"
)

// SessionGauge is told how many sessions are live.
type SessionGauge interface {
	SetSessions(n int)
}

// Sessions maps browser session ids to their form controllers. Form state
// lives only as long as the session is in use.
type Sessions struct {
	newController func() *counter.Controller
	idle          time.Duration
	gauge         SessionGauge
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]*session
	swept   time.Time
}

type session struct {
	ctrl *counter.Controller
	seen time.Time
}

// NewSessions creates a registry. newController builds the form for a new session.
func NewSessions(newController func() *counter.Controller, idle time.Duration, gauge SessionGauge) *Sessions {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Sessions{
		newController: newController,
		idle:          idle,
		gauge:         gauge,
		now:           time.Now,
		entries:       make(map[string]*session),
	}
}

// Acquire returns the controller for id. Unknown or expired ids get a fresh
// session; the returned id is the one the caller should keep using.
func (s *Sessions) Acquire(id string) (string, *counter.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	if ctrl := s.touchLocked(id, now); ctrl != nil {
		return id, ctrl
	}

	id = uuid.NewString()
	e := &session{ctrl: s.newController(), seen: now}
	s.entries[id] = e
	s.reportLocked()
	return id, e.ctrl
}

// Peek returns the controller for a live session id, or nil. Unlike Acquire
// it never creates a session.
func (s *Sessions) Peek(id string) *counter.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)
	return s.touchLocked(id, now)
}

// Len returns the number of sessions held, including idle ones not yet swept.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// touchLocked marks a live session as used. An idle session found before the
// sweep got to it is dropped here.
func (s *Sessions) touchLocked(id string, now time.Time) *counter.Controller {
	e, ok := s.entries[id]
	if !ok || id == "" {
		return nil
	}
	if now.Sub(e.seen) > s.idle {
		delete(s.entries, id)
		s.reportLocked()
		return nil
	}
	e.seen = now
	return e.ctrl
}

// evictLocked scans for idle sessions at most once per idle period.
func (s *Sessions) evictLocked(now time.Time) {
	if now.Sub(s.swept) < s.idle {
		return
	}
	s.swept = now

	removed := false
	for id, e := range s.entries {
		if now.Sub(e.seen) > s.idle {
			delete(s.entries, id)
			removed = true
		}
	}
	if removed {
		s.reportLocked()
	}
}

func (s *Sessions) reportLocked() {
	if s.gauge != nil {
		s.gauge.SetSessions(len(s.entries))
	}
}
