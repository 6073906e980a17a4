package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/voyapay/voyapay/internal/metrics"
)

// EventProcessor applies a verified Stripe event.
type EventProcessor interface {
	Process(ctx context.Context, event stripe.Event) error
}

// StripeWebhookHandler receives and verifies Stripe webhook deliveries.
type StripeWebhookHandler struct {
	processor EventProcessor
	secret    string
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewStripeWebhookHandler creates a StripeWebhookHandler.
func NewStripeWebhookHandler(processor EventProcessor, secret string, rec metrics.Recorder, logger *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{processor: processor, secret: secret, metrics: rec, logger: logger}
}

// Receive verifies the delivery signature and dispatches the event.
// A processing failure returns 500 with no body so the processor retries.
//
// POST /
func (h *StripeWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("failed to read webhook body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.secret == "" {
		h.logger.Error("webhook secret not configured")
		writeError(w, http.StatusBadRequest, "webhook not configured")
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		h.metrics.IncWebhookSignatureFailure()
		h.logger.Warn("rejected webhook delivery", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if err := h.processor.Process(r.Context(), event); err != nil {
		h.logger.Error("failed to process webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
