// Package order implements the checkout workflow: it turns a user's mutable
// cart into an immutable, priced order in a single atomic step.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation means address or payment method is missing. Nothing is
	// persisted and no transaction is started.
	ErrValidation = errors.New("address and payment method are required")
	// ErrEmptyCart means the user's cart had no lines. No order is created.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrProductGone means a cart line references a product that no longer
	// exists. The whole checkout is rejected and the cart is left untouched,
	// so the user can remove the stale line and retry.
	ErrProductGone = errors.New("cart references a product that no longer exists")
	ErrNotFound    = errors.New("order not found")
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Order struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Address       string    `json:"address"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	Total         string    `json:"total"` // NUMERIC -> string
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item is a line within an order. Price is the unit price at the moment the
// order was created, so the total stays re-derivable if catalog prices change.
type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Stats summarizes the order table for the admin dashboard.
type Stats struct {
	Orders int64  `json:"orders"`
	Sales  string `json:"sales"` // sum of completed orders' totals
}

// Engine places orders and reads them back. Implementations must make
// PlaceOrder atomic: either the order, all its items and the cart clear
// persist together, or none do. At most one concurrent checkout may observe
// and consume a given cart state for a user.
type Engine interface {
	PlaceOrder(ctx context.Context, userID, address, paymentMethod string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	GetByID(ctx context.Context, id string) (*Order, []Item, error)
	Stats(ctx context.Context) (Stats, error)
}

// sumItems computes Σ(price × quantity) with exact decimal arithmetic.
func sumItems(items []Item) (string, error) {
	total := decimal.Zero
	for _, it := range items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return "", fmt.Errorf("bad price for product %s: %w", it.ProductID, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.StringFixed(2), nil
}
