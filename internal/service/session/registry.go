package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type sessionKey struct {
	userID uuid.UUID
	deckID uuid.UUID
}

// session holds the serving order for one user and root deck. mu
// serializes answers; order and reviewed are only touched while it is held.
type session struct {
	mu       sync.Mutex
	state    State
	order    []uuid.UUID
	reviewed int

	lastUsed atomic.Int64
	detached atomic.Bool
}

// registry maps keys to live sessions and drops ones idle longer than ttl.
type registry struct {
	mu       sync.Mutex
	sessions map[sessionKey]*session
	ttl      time.Duration
	now      func() time.Time
}

func newRegistry(ttl time.Duration, now func() time.Time) *registry {
	return &registry{
		sessions: make(map[sessionKey]*session),
		ttl:      ttl,
		now:      now,
	}
}

// acquire returns the locked session for key, creating an idle one when
// none exists. The caller must call s.mu.Unlock.
func (r *registry) acquire(key sessionKey) *session {
	for {
		s := r.get(key)
		s.mu.Lock()
		if !s.detached.Load() {
			s.lastUsed.Store(r.now().UnixNano())
			return s
		}
		s.mu.Unlock()
	}
}

func (r *registry) get(key sessionKey) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	s, ok := r.sessions[key]
	if !ok {
		s = &session{state: StateIdle}
		s.lastUsed.Store(now.UnixNano())
		r.sessions[key] = s
	}
	return s
}

// remove detaches s if it is still the session registered for key.
func (r *registry) remove(key sessionKey, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[key]; ok && (s == nil || current == s) {
		current.detached.Store(true)
		delete(r.sessions, key)
	}
}

func (r *registry) sweepLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	cutoff := now.Add(-r.ttl).UnixNano()
	for key, s := range r.sessions {
		if s.lastUsed.Load() < cutoff {
			s.detached.Store(true)
			delete(r.sessions, key)
		}
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
