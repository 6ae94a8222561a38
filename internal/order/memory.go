package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/product"
)

// Catalog is the read-only product lookup the in-memory engine consumes.
// product.Repository satisfies it.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// MemEngine is an in-memory Engine for tests and local runs. A per-user mutex
// serializes the read-cart/clear-cart window, so concurrent double submits
// produce exactly one order.
type MemEngine struct {
	cart    cart.Store
	catalog Catalog

	mu     sync.Mutex
	userMu map[string]*sync.Mutex

	storeMu sync.RWMutex
	orders  []Order
	items   map[string][]Item
}

func NewMemEngine(c cart.Store, catalog Catalog) *MemEngine {
	return &MemEngine{
		cart:    c,
		catalog: catalog,
		userMu:  make(map[string]*sync.Mutex),
		items:   make(map[string][]Item),
	}
}

func (e *MemEngine) lockUser(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.userMu[userID]
	if !ok {
		m = &sync.Mutex{}
		e.userMu[userID] = m
	}
	return m
}

func (e *MemEngine) PlaceOrder(ctx context.Context, userID, address, paymentMethod string) (*Order, error) {
	if address == "" || paymentMethod == "" {
		return nil, ErrValidation
	}

	um := e.lockUser(userID)
	um.Lock()
	defer um.Unlock()

	lines, err := e.cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	orderID := uuid.NewString()
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		p, err := e.catalog.GetByID(ctx, l.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductGone
		}
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     p.Price,
		})
	}

	total, err := sumItems(items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o := Order{
		ID:            orderID,
		UserID:        userID,
		Address:       address,
		PaymentMethod: paymentMethod,
		Status:        StatusPending,
		Total:         total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Consume only the lines read above, then record the order. A line added
	// for another product while the checkout ran stays in the cart, and the
	// order is never visible with its lines still uncollected.
	for _, l := range lines {
		if err := e.cart.Remove(ctx, userID, l.ProductID); err != nil && !errors.Is(err, cart.ErrLineNotFound) {
			return nil, err
		}
	}

	e.storeMu.Lock()
	e.orders = append(e.orders, o)
	e.items[orderID] = items
	e.storeMu.Unlock()

	return &o, nil
}

func (e *MemEngine) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	e.storeMu.RLock()
	defer e.storeMu.RUnlock()
	var out []Order
	for i := len(e.orders) - 1; i >= 0; i-- { // most recent first
		if e.orders[i].UserID == userID {
			out = append(out, e.orders[i])
		}
	}
	return out, nil
}

func (e *MemEngine) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	e.storeMu.RLock()
	defer e.storeMu.RUnlock()
	for i := range e.orders {
		if e.orders[i].ID == id {
			o := e.orders[i]
			return &o, append([]Item(nil), e.items[id]...), nil
		}
	}
	return nil, nil, ErrNotFound
}

func (e *MemEngine) Stats(ctx context.Context) (Stats, error) {
	e.storeMu.RLock()
	defer e.storeMu.RUnlock()
	sales := decimal.Zero
	for i := range e.orders {
		if e.orders[i].Status == StatusCompleted {
			t, err := decimal.NewFromString(e.orders[i].Total)
			if err != nil {
				return Stats{}, err
			}
			sales = sales.Add(t)
		}
	}
	return Stats{Orders: int64(len(e.orders)), Sales: sales.StringFixed(2)}, nil
}
