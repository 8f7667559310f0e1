package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps one Dashboard per browser session.
type Sessions struct {
	newDashboard func() *Dashboard
	ttl          time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	dash     *Dashboard
	lastSeen time.Time
}

// NewSessions creates a registry. Sessions idle for longer than ttl are removed
// by Sweep.
func NewSessions(ttl time.Duration, newDashboard func() *Dashboard) *Sessions {
	return &Sessions{
		newDashboard: newDashboard,
		ttl:          ttl,
		now:          time.Now,
		sessions:     make(map[string]*session),
	}
}

// Get returns the dashboard for id and marks the session as seen.
func (s *Sessions) Get(id string) (*Dashboard, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.dash, true
}

// Create registers a new session and returns its id and dashboard.
func (s *Sessions) Create() (string, *Dashboard) {
	id := uuid.NewString()
	dash := s.newDashboard()

	s.mu.Lock()
	s.sessions[id] = &session{dash: dash, lastSeen: s.now()}
	s.mu.Unlock()

	return id, dash
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Wait blocks until the live dashboards have delivered their pending cycle
// notifications.
func (s *Sessions) Wait() {
	s.mu.Lock()
	dashes := make([]*Dashboard, 0, len(s.sessions))
	for _, sess := range s.sessions {
		dashes = append(dashes, sess.dash)
	}
	s.mu.Unlock()

	for _, d := range dashes {
		d.Wait()
	}
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}
