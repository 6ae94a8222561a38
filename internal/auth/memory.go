package auth

import (
	"context"
	"sync"
)

// MemSessions is an in-memory SessionStore for tests and local runs.
type MemSessions struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemSessions() *MemSessions {
	return &MemSessions{m: make(map[string]string)}
}

func (s *MemSessions) Put(ctx context.Context, jti, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[jti] = userID
	return nil
}

func (s *MemSessions) Exists(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[jti]
	return ok, nil
}

func (s *MemSessions) Revoke(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, jti)
	return nil
}
