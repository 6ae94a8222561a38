// Package wishlist stores products a user has saved for later.
package wishlist

import "context"

type Item struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type Store interface {
	Items(ctx context.Context, userID string) ([]Item, error)
	// Add is idempotent: adding a product already on the wishlist is a no-op.
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
}
