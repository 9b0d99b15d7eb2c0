package admin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultSessionTTL = 12 * time.Hour

type session struct {
	gate     *Gate
	lastSeen time.Time
}

// Sessions gives every browser its own Gate, keyed by an opaque id. Only
// logged-in gates are kept; an unknown id reads as LoggedOut.
type Sessions struct {
	expectedHash string
	hash         HashFunc
	ttl          time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessions(expectedHash string, hash HashFunc, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		expectedHash: expectedHash,
		hash:         hash,
		ttl:          ttl,
		now:          time.Now,
		sessions:     make(map[string]*session),
	}
}

// Configured reports whether an expected hash was supplied.
func (s *Sessions) Configured() bool {
	return s.expectedHash != ""
}

// Login runs the gate for id. On success it returns the session id to hand
// back to the client, minting one when id is empty or unknown.
func (s *Sessions) Login(ctx context.Context, id, password string) (string, Outcome) {
	gate := s.lookup(id)
	if gate == nil {
		gate = NewGate(s.expectedHash, s.hash)
	}

	out := gate.Login(ctx, password)
	if out.State != LoggedIn {
		return id, out
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, k)
		}
	}
	if _, ok := s.sessions[id]; !ok || id == "" {
		id = uuid.NewString()
	}
	s.sessions[id] = &session{gate: gate, lastSeen: now}
	return id, out
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) Logout(id string) Outcome {
	gate := s.lookup(id)
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if gate == nil {
		return NewGate(s.expectedHash, s.hash).Logout()
	}
	return gate.Logout()
}

// State returns the gate state for id and refreshes its idle timer.
func (s *Sessions) State(id string) State {
	gate := s.lookup(id)
	if gate == nil {
		return LoggedOut
	}
	return gate.State()
}

func (s *Sessions) lookup(id string) *Gate {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil
	}
	sess.lastSeen = now
	return sess.gate
}
