// Package cart stores per-user cart lines prior to checkout.
package cart

import (
	"context"
	"errors"
)

var ErrLineNotFound = errors.New("cart line not found")

// Line is one (product, quantity) pairing owned by a user.
// Unique per (user_id, product_id).
type Line struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Store interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	// Add upserts a line: an existing line for the product has its
	// quantity increased by qty.
	Add(ctx context.Context, userID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
