package order

import "testing"

func TestSumItems(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ProductID: "a", Quantity: 2, Price: "10.00"},
		{ProductID: "b", Quantity: 1, Price: "5.50"},
	}
	total, err := sumItems(items)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != "25.50" {
		t.Fatalf("total=%s, want 25.50", total)
	}
}

func TestSumItemsNoFloatDrift(t *testing.T) {
	t.Parallel()

	// 0.10 added ten times must be exactly 1.00
	items := make([]Item, 10)
	for i := range items {
		items[i] = Item{ProductID: "a", Quantity: 1, Price: "0.10"}
	}
	total, err := sumItems(items)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != "1.00" {
		t.Fatalf("total=%s, want 1.00", total)
	}
}

func TestSumItemsBadPrice(t *testing.T) {
	t.Parallel()

	if _, err := sumItems([]Item{{ProductID: "a", Quantity: 1, Price: "not-a-number"}}); err == nil {
		t.Fatal("expected error for malformed price")
	}
}
