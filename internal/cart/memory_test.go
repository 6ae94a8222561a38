package cart

import (
	"context"
	"errors"
	"testing"
)

func TestMemStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemStore()

	// adding the same product twice merges into one line
	if err := s.Add(ctx, "u1", "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, "u1", "p1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	lines, err := s.Lines(ctx, "u1")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("lines=%+v, want one line with quantity 3", lines)
	}

	if err := s.SetQuantity(ctx, "u1", "p1", 5); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	lines, _ = s.Lines(ctx, "u1")
	if lines[0].Quantity != 5 {
		t.Fatalf("quantity=%d, want 5", lines[0].Quantity)
	}

	if err := s.SetQuantity(ctx, "u1", "missing", 1); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("set on absent line: err=%v, want ErrLineNotFound", err)
	}
	if err := s.Remove(ctx, "u1", "missing"); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("remove absent line: err=%v, want ErrLineNotFound", err)
	}

	// carts are per user
	if err := s.Add(ctx, "u2", "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	lines, _ = s.Lines(ctx, "u1")
	if len(lines) != 0 {
		t.Fatalf("u1 lines=%d after clear, want 0", len(lines))
	}
	lines, _ = s.Lines(ctx, "u2")
	if len(lines) != 1 {
		t.Fatalf("u2 lines=%d, want 1", len(lines))
	}
}
