// Package docstore provides a document store with merge-on-write semantics.
//
// Documents are addressed by slash-separated paths (collection/id, optionally
// nested). Set merges top-level fields into the existing document: the write
// wins per field, fields it does not carry survive. Repeated writes keyed by a
// natural id are therefore idempotent, which the webhook pipeline relies on.
package docstore

import (
	"context"
	"fmt"
	"strings"
)

// Document is a stored document's field map.
type Document map[string]any

// Store is the document store interface.
type Store interface {
	// Set merges fields into the document at path, creating it if absent.
	Set(ctx context.Context, path string, fields Document) error
	// Get returns the document at path, reporting whether it exists.
	Get(ctx context.Context, path string) (Document, bool, error)
}

// Path helpers for the collections this service writes.

// UserPath addresses a user profile document.
func UserPath(uid string) string {
	return fmt.Sprintf("users/%s", uid)
}

// UserPaymentPath addresses a payment record nested under its owning user.
func UserPaymentPath(uid, id string) string {
	return fmt.Sprintf("users/%s/payments/%s", uid, id)
}

// PaymentPath addresses a record in the global payments collection.
func PaymentPath(id string) string {
	return fmt.Sprintf("payments/%s", id)
}

// InvoicePath addresses a record in the global invoices collection.
func InvoicePath(id string) string {
	return fmt.Sprintf("invoices/%s", id)
}

// ValidatePath rejects empty or unbalanced paths before they reach a backend.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty document path")
	}
	parts := strings.Split(path, "/")
	if len(parts)%2 != 0 {
		return fmt.Errorf("document path %q must have an even number of segments", path)
	}
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("document path %q has an empty segment", path)
		}
	}
	return nil
}
