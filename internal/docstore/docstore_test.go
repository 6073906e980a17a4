package docstore

import (
	"context"
	"testing"
)

// runStoreSuite exercises the merge contract every Store backend must honor.
func runStoreSuite(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing document", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "users/absent")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected missing document")
		}
	})

	t.Run("set then get", func(t *testing.T) {
		err := store.Set(ctx, "users/u1", Document{"email": "a@example.com", "stripeCustomerId": "cus_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc, ok, err := store.Get(ctx, "users/u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected document to exist")
		}
		if doc["email"] != "a@example.com" {
			t.Errorf("unexpected email: %v", doc["email"])
		}
	})

	t.Run("merge preserves unspecified fields", func(t *testing.T) {
		if err := store.Set(ctx, "users/u2", Document{"email": "b@example.com", "stripeCustomerId": "cus_2"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.Set(ctx, "users/u2", Document{"email": "c@example.com"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		doc, _, err := store.Get(ctx, "users/u2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc["email"] != "c@example.com" {
			t.Errorf("expected later write to win, got %v", doc["email"])
		}
		if doc["stripeCustomerId"] != "cus_2" {
			t.Errorf("expected untouched field to survive, got %v", doc["stripeCustomerId"])
		}
	})

	t.Run("nested path", func(t *testing.T) {
		path := UserPaymentPath("u3", "pi_123")
		if err := store.Set(ctx, path, Document{"stripeId": "pi_123", "status": "succeeded"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		doc, ok, err := store.Get(ctx, path)
		if err != nil || !ok {
			t.Fatalf("expected document, got ok=%v err=%v", ok, err)
		}
		if doc["stripeId"] != "pi_123" {
			t.Errorf("unexpected stripeId: %v", doc["stripeId"])
		}
	})

	t.Run("invalid path rejected", func(t *testing.T) {
		if err := store.Set(ctx, "users", Document{"a": 1}); err == nil {
			t.Error("expected error for odd-segment path")
		}
		if err := store.Set(ctx, "", Document{"a": 1}); err == nil {
			t.Error("expected error for empty path")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemory())
}

func TestMemoryStore_CopyOnGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.Set(ctx, "users/u1", Document{"email": "a@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, _, _ := store.Get(ctx, "users/u1")
	doc["email"] = "mutated"

	again, _, _ := store.Get(ctx, "users/u1")
	if again["email"] != "a@example.com" {
		t.Errorf("stored document mutated through returned copy: %v", again["email"])
	}
}

func TestPathHelpers(t *testing.T) {
	if got := UserPath("u1"); got != "users/u1" {
		t.Errorf("unexpected user path: %s", got)
	}
	if got := UserPaymentPath("u1", "pi_1"); got != "users/u1/payments/pi_1" {
		t.Errorf("unexpected user payment path: %s", got)
	}
	if got := PaymentPath("pi_1"); got != "payments/pi_1" {
		t.Errorf("unexpected payment path: %s", got)
	}
	if got := InvoicePath("in_1"); got != "invoices/in_1" {
		t.Errorf("unexpected invoice path: %s", got)
	}
}
