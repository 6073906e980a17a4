package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v72"

	"github.com/voyapay/voyapay/internal/docstore"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/model"
)

// Event types the receiver acts on. Everything else is acknowledged and ignored.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventInvoicePaid            = "invoice.paid"
)

// EventProcessor applies verified webhook events to the document store.
// Writes are merges on the processor-assigned id, so redelivery is idempotent.
type EventProcessor struct {
	store   docstore.Store
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewEventProcessor creates an EventProcessor.
func NewEventProcessor(store docstore.Store, rec metrics.Recorder, logger *slog.Logger) *EventProcessor {
	return &EventProcessor{store: store, metrics: rec, logger: logger}
}

// Process handles a single verified event.
func (p *EventProcessor) Process(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("failed to decode payment intent from event %s: %w", event.ID, err)
		}

		doc := succeededIntentFields(&pi)
		if err := p.store.Set(ctx, docstore.PaymentPath(pi.ID), doc); err != nil {
			return err
		}
		if uid := pi.Metadata[MetadataUIDKey]; uid != "" {
			if err := p.store.Set(ctx, docstore.UserPaymentPath(uid, pi.ID), doc); err != nil {
				return err
			}
		}

		p.metrics.IncWebhookEvent(string(event.Type), true)
		p.logger.Info("payment intent recorded",
			slog.String("payment_intent_id", pi.ID),
			slog.Int64("amount", receivedAmount(&pi)),
		)
		return nil

	case EventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to decode invoice from event %s: %w", event.ID, err)
		}

		doc := paidInvoiceFields(&inv)
		if err := p.store.Set(ctx, docstore.InvoicePath(inv.ID), doc); err != nil {
			return err
		}
		if uid := inv.Metadata[MetadataUIDKey]; uid != "" {
			if err := p.store.Set(ctx, docstore.UserPaymentPath(uid, inv.ID), doc); err != nil {
				return err
			}
		}

		p.metrics.IncWebhookEvent(string(event.Type), true)
		p.logger.Info("invoice recorded", slog.String("invoice_id", inv.ID))
		return nil

	default:
		p.metrics.IncWebhookEvent(string(event.Type), false)
		return nil
	}
}

func receivedAmount(pi *stripe.PaymentIntent) int64 {
	if pi.AmountReceived > 0 {
		return pi.AmountReceived
	}
	return pi.Amount
}

func succeededIntentFields(pi *stripe.PaymentIntent) docstore.Document {
	doc := docstore.Document{
		"stripeId":  pi.ID,
		"amount":    receivedAmount(pi),
		"currency":  string(pi.Currency),
		"status":    model.PaymentStatusSucceeded,
		"type":      string(model.RecordTypePaymentIntent),
		"createdAt": time.Unix(pi.Created, 0).UTC(),
		"metadata":  metadataOrEmpty(pi.Metadata),
	}
	if pi.Charges != nil && len(pi.Charges.Data) > 0 {
		doc["receiptUrl"] = pi.Charges.Data[0].ReceiptURL
	}
	if len(pi.PaymentMethodTypes) > 0 {
		doc["paymentMethod"] = pi.PaymentMethodTypes[0]
	}
	return doc
}

func paidInvoiceFields(inv *stripe.Invoice) docstore.Document {
	pdf := inv.InvoicePDF
	if pdf == "" {
		pdf = inv.HostedInvoiceURL
	}
	return docstore.Document{
		"stripeId":   inv.ID,
		"amount":     inv.AmountPaid,
		"currency":   string(inv.Currency),
		"status":     model.PaymentStatusPaid,
		"type":       string(model.RecordTypeInvoice),
		"createdAt":  time.Unix(inv.Created, 0).UTC(),
		"invoicePdf": pdf,
		"metadata":   metadataOrEmpty(inv.Metadata),
	}
}

func metadataOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
