package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"storefront/internal/cart"
	"storefront/internal/product"
)

func seedCatalog(t *testing.T, prices map[string]string) *product.MemRepo {
	t.Helper()
	catalog := product.NewMemRepo()
	for id, price := range prices {
		if err := catalog.Create(context.Background(), &product.Product{ID: id, Name: "p-" + id, Price: price}); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
	return catalog
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA, prodB := uuid.NewString(), uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00", prodB: "5.50"})
	carts := cart.NewMemStore()
	engine := NewMemEngine(carts, catalog)

	userID := uuid.NewString()
	if err := carts.Add(ctx, userID, prodA, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := carts.Add(ctx, userID, prodB, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	o, err := engine.PlaceOrder(ctx, userID, "1 Main St", "card")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if o.Total != "25.50" {
		t.Fatalf("total=%s, want 25.50", o.Total)
	}
	if o.Status != StatusPending {
		t.Fatalf("status=%s, want pending", o.Status)
	}

	_, items, err := engine.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items=%d, want 2", len(items))
	}
	for _, it := range items {
		if it.OrderID != o.ID {
			t.Fatalf("item order id=%s, want %s", it.OrderID, o.ID)
		}
		if it.Price == "" {
			t.Fatal("item has no price snapshot")
		}
	}

	lines, err := carts.Lines(ctx, userID)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("cart has %d lines after checkout, want 0", len(lines))
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := NewMemEngine(cart.NewMemStore(), product.NewMemRepo())

	_, err := engine.PlaceOrder(ctx, uuid.NewString(), "1 Main St", "card")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err=%v, want ErrEmptyCart", err)
	}
	orders, _ := engine.ListByUser(ctx, uuid.NewString())
	if len(orders) != 0 {
		t.Fatalf("orders created from empty cart: %d", len(orders))
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := NewMemEngine(cart.NewMemStore(), product.NewMemRepo())

	if _, err := engine.PlaceOrder(ctx, "u1", "", "card"); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing address: err=%v, want ErrValidation", err)
	}
	if _, err := engine.PlaceOrder(ctx, "u1", "1 Main St", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing payment method: err=%v, want ErrValidation", err)
	}
}

func TestPlaceOrder_MissingProductRejectsWholeCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA := uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00"})
	carts := cart.NewMemStore()
	engine := NewMemEngine(carts, catalog)

	userID := uuid.NewString()
	gone := uuid.NewString() // never in the catalog
	if err := carts.Add(ctx, userID, prodA, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := carts.Add(ctx, userID, gone, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := engine.PlaceOrder(ctx, userID, "1 Main St", "card")
	if !errors.Is(err, ErrProductGone) {
		t.Fatalf("err=%v, want ErrProductGone", err)
	}

	// nothing persisted, cart untouched
	orders, _ := engine.ListByUser(ctx, userID)
	if len(orders) != 0 {
		t.Fatalf("orders=%d after failed checkout, want 0", len(orders))
	}
	lines, _ := carts.Lines(ctx, userID)
	if len(lines) != 2 {
		t.Fatalf("cart lines=%d after failed checkout, want 2", len(lines))
	}
}

func TestPlaceOrder_ConcurrentDoubleSubmit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA := uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00"})
	carts := cart.NewMemStore()
	engine := NewMemEngine(carts, catalog)

	userID := uuid.NewString()
	if err := carts.Add(ctx, userID, prodA, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.PlaceOrder(ctx, userID, "1 Main St", "card")
		}(i)
	}
	wg.Wait()

	var ok, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmptyCart):
			empty++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || empty != 1 {
		t.Fatalf("ok=%d empty=%d, want exactly one order", ok, empty)
	}

	orders, _ := engine.ListByUser(ctx, userID)
	if len(orders) != 1 {
		t.Fatalf("orders=%d, want 1", len(orders))
	}
	if orders[0].Total != "20.00" {
		t.Fatalf("total=%s, want 20.00", orders[0].Total)
	}
}

// lateAddCart injects a line for a new product right after the engine reads
// the cart, inside the checkout window.
type lateAddCart struct {
	cart.Store
	userID    string
	productID string
	once      sync.Once
}

func (s *lateAddCart) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	lines, err := s.Store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {
		err = s.Store.Add(ctx, s.userID, s.productID, 1)
	})
	return lines, err
}

func TestPlaceOrder_AddDuringCheckoutStaysInCart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA, prodB := uuid.NewString(), uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00", prodB: "5.50"})

	userID := uuid.NewString()
	carts := &lateAddCart{Store: cart.NewMemStore(), userID: userID, productID: prodB}
	engine := NewMemEngine(carts, catalog)

	if err := carts.Add(ctx, userID, prodA, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	o, err := engine.PlaceOrder(ctx, userID, "1 Main St", "card")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if o.Total != "10.00" {
		t.Fatalf("total=%s, want 10.00", o.Total)
	}
	_, items, err := engine.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != prodA {
		t.Fatalf("items=%+v, want only the line read at checkout", items)
	}

	// the line added during checkout is still there for the next order
	lines, err := carts.Lines(ctx, userID)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != prodB {
		t.Fatalf("lines=%+v, want the late-added line to survive", lines)
	}
}

func TestPlaceOrder_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA := uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00"})
	carts := cart.NewMemStore()
	engine := NewMemEngine(carts, catalog)

	userID := uuid.NewString()
	if err := carts.Add(ctx, userID, prodA, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	o, err := engine.PlaceOrder(ctx, userID, "1 Main St", "card")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if err := catalog.Update(ctx, &product.Product{ID: prodA, Price: "99.99"}, true); err != nil {
		t.Fatalf("update price: %v", err)
	}

	got, items, err := engine.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Total != "10.00" {
		t.Fatalf("total=%s after price change, want 10.00", got.Total)
	}
	if items[0].Price != "10.00" {
		t.Fatalf("snapshot price=%s, want 10.00", items[0].Price)
	}
}

func TestListByUser_MostRecentFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA := uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00"})
	carts := cart.NewMemStore()
	engine := NewMemEngine(carts, catalog)

	userID := uuid.NewString()
	var ids []string
	for i := 0; i < 2; i++ {
		if err := carts.Add(ctx, userID, prodA, 1); err != nil {
			t.Fatalf("add: %v", err)
		}
		o, err := engine.PlaceOrder(ctx, userID, "1 Main St", "card")
		if err != nil {
			t.Fatalf("place order %d: %v", i, err)
		}
		ids = append(ids, o.ID)
	}

	orders, err := engine.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders=%d, want 2", len(orders))
	}
	if orders[0].ID != ids[1] || orders[1].ID != ids[0] {
		t.Fatal("orders not most-recent-first")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prodA := uuid.NewString()
	catalog := seedCatalog(t, map[string]string{prodA: "10.00"})
	carts := cart.NewMemStore()
	engine := NewMemEngine(carts, catalog)

	userID := uuid.NewString()
	if err := carts.Add(ctx, userID, prodA, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.PlaceOrder(ctx, userID, "1 Main St", "card"); err != nil {
		t.Fatalf("place order: %v", err)
	}

	s, err := engine.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Orders != 1 {
		t.Fatalf("orders=%d, want 1", s.Orders)
	}
	// pending orders do not count as sales
	if s.Sales != "0.00" {
		t.Fatalf("sales=%s, want 0.00", s.Sales)
	}
}
