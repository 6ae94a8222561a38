package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGEngine runs the checkout inside one Postgres transaction.
type PGEngine struct{ db *pgxpool.Pool }

func NewPGEngine(db *pgxpool.Pool) *PGEngine { return &PGEngine{db: db} }

// PlaceOrder locks the user's cart rows, resolves current prices, inserts the
// order and its items with a unit-price snapshot, deletes the cart lines it
// read and commits. The row locks serialize double submits for the same user:
// the second transaction waits, then sees an empty cart and fails with
// ErrEmptyCart. Only the observed lines are deleted, so a line added for a
// new product while the checkout runs stays in the cart for the next one.
func (e *PGEngine) PlaceOrder(ctx context.Context, userID, address, paymentMethod string) (*Order, error) {
	if address == "" || paymentMethod == "" {
		return nil, ErrValidation
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, product_id, quantity FROM cart_items
		WHERE user_id=$1
		ORDER BY product_id
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	type line struct {
		id        string
		productID string
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.id, &l.productID, &l.quantity); err != nil {
			rows.Close()
			return nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	orderID := uuid.NewString()
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		var price string
		err := tx.QueryRow(ctx, `SELECT price::text FROM products WHERE id=$1`, l.productID).Scan(&price)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductGone
		}
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: l.productID,
			Quantity:  l.quantity,
			Price:     price,
		})
	}

	total, err := sumItems(items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            orderID,
		UserID:        userID,
		Address:       address,
		PaymentMethod: paymentMethod,
		Status:        StatusPending,
		Total:         total,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, address, payment_method, total, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.Address, o.PaymentMethod, o.Total, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4,$5)
		`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price); err != nil {
			return nil, err
		}
	}

	lineIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		lineIDs = append(lineIDs, l.id)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1::uuid[])`, lineIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (e *PGEngine) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := e.db.Query(ctx, `
		SELECT id, user_id, address, payment_method, status, total::text, created_at, updated_at
		FROM orders WHERE user_id=$1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Address, &o.PaymentMethod, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (e *PGEngine) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := e.db.QueryRow(ctx, `
		SELECT id, user_id, address, payment_method, status, total::text, created_at, updated_at
		FROM orders WHERE id=$1
	`, id).Scan(&o.ID, &o.UserID, &o.Address, &o.PaymentMethod, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := e.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price::text
		FROM order_items WHERE order_id=$1
	`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	return &o, items, rows.Err()
}

func (e *PGEngine) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s Stats
	err := e.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total) FILTER (WHERE status=$1), 0)::numeric(12,2)::text
		FROM orders
	`, StatusCompleted).Scan(&s.Orders, &s.Sales)
	return s, err
}
