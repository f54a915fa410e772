package session

import (
	"context"
	"sync"
	"time"

	"github.com/bryanwahyu/clausecode/internal/domain/auth"
)

type entry struct {
	user    auth.User
	expires time.Time
}

// MemoryStore is the single-process fallback when no redis is configured.
// Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[auth.SessionID]entry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[auth.SessionID]entry), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, u *auth.User, ttl time.Duration) (auth.SessionID, error) {
	id := newID()
	s.mu.Lock()
	s.sessions[id] = entry{user: *u, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id auth.SessionID) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, auth.ErrNoSession
	}
	if !s.now().Before(e.expires) {
		delete(s.sessions, id)
		return nil, auth.ErrNoSession
	}
	u := e.user
	return &u, nil
}

func (s *MemoryStore) Delete(_ context.Context, id auth.SessionID) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
