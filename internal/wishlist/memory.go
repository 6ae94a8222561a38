package wishlist

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for tests and local runs.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]map[string]*Item // userID -> productID -> item
}

func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]map[string]*Item)}
}

func (s *MemStore) Items(ctx context.Context, userID string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Item
	for _, it := range s.items[userID] {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *MemStore) Add(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := s.items[userID]
	if byProduct == nil {
		byProduct = make(map[string]*Item)
		s.items[userID] = byProduct
	}
	if _, ok := byProduct[productID]; ok {
		return nil
	}
	byProduct[productID] = &Item{ID: uuid.NewString(), UserID: userID, ProductID: productID}
	return nil
}

func (s *MemStore) Remove(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[userID], productID)
	return nil
}
