package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for tests and local runs.
type MemStore struct {
	mu    sync.RWMutex
	lines map[string]map[string]*Line // userID -> productID -> line
}

func NewMemStore() *MemStore {
	return &MemStore{lines: make(map[string]map[string]*Line)}
}

func (s *MemStore) Lines(ctx context.Context, userID string) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Line
	for _, l := range s.lines[userID] {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *MemStore) Add(ctx context.Context, userID, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := s.lines[userID]
	if byProduct == nil {
		byProduct = make(map[string]*Line)
		s.lines[userID] = byProduct
	}
	if l, ok := byProduct[productID]; ok {
		l.Quantity += qty
		return nil
	}
	byProduct[productID] = &Line{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	return nil
}

func (s *MemStore) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[userID][productID]
	if !ok {
		return ErrLineNotFound
	}
	l.Quantity = qty
	return nil
}

func (s *MemStore) Remove(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[userID][productID]; !ok {
		return ErrLineNotFound
	}
	delete(s.lines[userID], productID)
	return nil
}

func (s *MemStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, userID)
	return nil
}
