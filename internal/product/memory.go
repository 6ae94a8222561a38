package product

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemRepo is an in-memory Repository for tests and local runs.
type MemRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Product
	order []string // insertion order, oldest first
}

func NewMemRepo() *MemRepo {
	return &MemRepo{byID: make(map[string]*Product)}
}

func (r *MemRepo) Create(ctx context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.byID[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func matches(p *Product, q Query) bool {
	if s := strings.TrimSpace(q.Q); s != "" {
		s = strings.ToLower(s)
		if !strings.Contains(strings.ToLower(p.Name), s) &&
			!strings.Contains(strings.ToLower(p.Description), s) {
			return false
		}
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return false
	}
	if q.MinPrice != "" {
		if min, err := decimal.NewFromString(q.MinPrice); err != nil || price.LessThan(min) {
			return false
		}
	}
	if q.MaxPrice != "" {
		if max, err := decimal.NewFromString(q.MaxPrice); err != nil || price.GreaterThan(max) {
			return false
		}
	}
	return true
}

func (r *MemRepo) List(ctx context.Context, q Query) ([]Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	// newest first
	var hits []Product
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.byID[r.order[i]]
		if p != nil && matches(p, q) {
			hits = append(hits, *p)
		}
	}
	total := int64(len(hits))
	if offset >= len(hits) {
		return []Product{}, total, nil
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end], total, nil
}

func (r *MemRepo) Update(ctx context.Context, p *Product, updatePrice bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	if p.Name != "" {
		ex.Name = p.Name
	}
	if p.Description != "" {
		ex.Description = p.Description
	}
	if p.Category != "" {
		ex.Category = p.Category
	}
	if updatePrice {
		ex.Price = p.Price
	}
	ex.UpdatedAt = time.Now()
	return nil
}

func (r *MemRepo) SetImage(ctx context.Context, id, image string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.Image = image
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MemRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
