package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/clinic-scheduler/internal/booking"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
)

// Session is one browser's booking workflow and the credential it was opened
// with. Sessions never share mutable state.
type Session struct {
	ID       string
	Workflow *booking.Workflow

	store    *identity.MemoryStore
	resolver *identity.Resolver

	mu       sync.Mutex
	token    string
	lastSeen time.Time
}

// syncToken updates the session credential when the caller presents a
// different bearer token and reports whether the identity changed.
func (s *Session) syncToken(ctx context.Context, token string) (*identity.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == s.token {
		return nil, false
	}
	s.token = token
	if token == "" {
		_ = s.store.ClearToken(ctx)
	} else {
		_ = s.store.SaveToken(ctx, token)
	}
	return s.resolver.Resolve(ctx), true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry holds live sessions keyed by a random id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxIdle  time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry that forgets sessions idle for maxIdle. A
// zero maxIdle keeps sessions until they are deleted.
func NewRegistry(maxIdle time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

func (r *Registry) add(s *Session) {
	s.ID = uuid.NewString()
	s.touch(r.now())
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

// Get returns the session with id and marks it active.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if r.expired(s) {
		r.Delete(id)
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

// Delete forgets a session.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Prune removes expired sessions and returns how many were dropped.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *Session) bool {
	return r.maxIdle > 0 && r.now().Sub(s.idleSince()) > r.maxIdle
}
