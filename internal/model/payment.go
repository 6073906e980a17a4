// Package model defines domain entities for the application.
package model

import "time"

// RecordType distinguishes the Stripe object a payment record mirrors.
type RecordType string

const (
	RecordTypePaymentIntent RecordType = "payment_intent"
	RecordTypeInvoice       RecordType = "invoice"
)

// PaymentStatus values mirrored from the processor.
const (
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusPaid      = "paid"
)

// PaymentRecord is a denormalized copy of a processor object. Its natural key
// is the processor-assigned id; writes are merges, never replacements, so a
// later delivery overwrites fields without destroying ones it does not carry.
type PaymentRecord struct {
	StripeID      string            `json:"stripeId"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	Type          RecordType        `json:"type"`
	CreatedAt     time.Time         `json:"createdAt"`
	UID           string            `json:"uid,omitempty"`
	ReceiptURL    string            `json:"receiptUrl,omitempty"`
	InvoicePDF    string            `json:"invoicePdf,omitempty"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PaymentMethod is a saved card summary returned by GET /payment-methods.
type PaymentMethod struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
	Type     string `json:"type"`
}
