package review_session

import (
	"sync"
	"time"
)

// SessionStore is the in-memory registry of review sessions. The store's
// lock only covers insertion, lookup and removal; each session is
// serialized by its own lock.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionStore creates an empty registry.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*session)}
}

// Len returns the number of registered sessions.
func (r *SessionStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionStore) add(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

func (r *SessionStore) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// removeExpired deletes terminal sessions that ended before cutoff and
// returns how many were removed. Session locks are taken without holding
// the registry lock so an in-flight grade never stalls the registry.
func (r *SessionStore) removeExpired(cutoff time.Time) int {
	r.mu.RLock()
	candidates := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		candidates = append(candidates, s)
	}
	r.mu.RUnlock()

	var expired []string
	for _, s := range candidates {
		s.mu.Lock()
		if s.expired(cutoff) {
			expired = append(expired, s.id)
		}
		s.mu.Unlock()
	}
	if len(expired) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, id := range expired {
		if _, ok := r.sessions[id]; ok {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
