package user

import (
	"context"
	"sync"
	"time"
)

// MemRepo is an in-memory Repository for tests and local runs.
type MemRepo struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemRepo() *MemRepo {
	return &MemRepo{users: make(map[string]*User)}
}

func (r *MemRepo) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Username == u.Username || ex.Email == u.Email {
			return ErrAlreadyExist
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.users[u.ID] = &cp
	return nil
}

func (r *MemRepo) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemRepo) Update(ctx context.Context, u *User, updatePassword bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if u.Username != "" {
		ex.Username = u.Username
	}
	if updatePassword {
		ex.PasswordHash = u.PasswordHash
	}
	ex.UpdatedAt = time.Now()
	return nil
}

func (r *MemRepo) SetRole(ctx context.Context, id, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}
