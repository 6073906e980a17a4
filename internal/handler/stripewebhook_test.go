package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v72"

	"github.com/voyapay/voyapay/internal/docstore"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/payments"
)

const webhookSecret = "whsec_test_secret"

// stripeSignature builds a Stripe-Signature header for a payload.
func stripeSignature(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signedStripeRequest(secret string, payload []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSignature(secret, time.Now().Unix(), payload))
	return req
}

func succeededEventPayload() []byte {
	return []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_123",
				"amount": 2500,
				"amount_received": 2500,
				"currency": "usd",
				"created": 1700000000,
				"metadata": {"uid": "user-1"},
				"payment_method_types": ["card"]
			}
		}
	}`)
}

func newWebhookHandler(store docstore.Store, rec metrics.Recorder) *StripeWebhookHandler {
	processor := payments.NewEventProcessor(store, rec, testLogger())
	return NewStripeWebhookHandler(processor, webhookSecret, rec, testLogger())
}

func TestReceive_HandledEvent(t *testing.T) {
	store := docstore.NewMemory()
	h := newWebhookHandler(store, metrics.NewNoop())

	rec := httptest.NewRecorder()
	h.Receive(rec, signedStripeRequest(webhookSecret, succeededEventPayload()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := bytes.TrimSpace(rec.Body.Bytes()); string(body) != `{"received":true}` {
		t.Errorf("unexpected body %s", body)
	}

	if _, ok, _ := store.Get(context.Background(), docstore.PaymentPath("pi_123")); !ok {
		t.Error("expected payment record")
	}
	if _, ok, _ := store.Get(context.Background(), docstore.UserPaymentPath("user-1", "pi_123")); !ok {
		t.Error("expected per-user payment record")
	}
}

func TestReceive_UnhandledEventStillAcked(t *testing.T) {
	store := docstore.NewMemory()
	h := newWebhookHandler(store, metrics.NewNoop())

	payload := []byte(`{"id": "evt_2", "type": "customer.created", "data": {"object": {"id": "cus_1"}}}`)
	rec := httptest.NewRecorder()
	h.Receive(rec, signedStripeRequest(webhookSecret, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if store.Len() != 0 {
		t.Errorf("expected no writes, got %d", store.Len())
	}
}

func TestReceive_BadSignature(t *testing.T) {
	recMetrics := metrics.NewInMemory()
	store := docstore.NewMemory()
	h := newWebhookHandler(store, recMetrics)

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"wrong secret", signedStripeRequest("whsec_other", succeededEventPayload())},
		{"missing header", httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(succeededEventPayload()))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Receive(rec, tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}

	if got := recMetrics.Snapshot().WebhookSignatureFailures; got != 2 {
		t.Errorf("expected 2 signature failures, got %d", got)
	}
	if store.Len() != 0 {
		t.Errorf("rejected deliveries must not write, got %d documents", store.Len())
	}
}

func TestReceive_TamperedPayload(t *testing.T) {
	store := docstore.NewMemory()
	h := newWebhookHandler(store, metrics.NewNoop())

	payload := succeededEventPayload()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(bytes.Replace(payload, []byte("2500"), []byte("2501"), 1)))
	req.Header.Set("Stripe-Signature", stripeSignature(webhookSecret, time.Now().Unix(), payload))

	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if store.Len() != 0 {
		t.Errorf("rejected deliveries must not write, got %d documents", store.Len())
	}
}

func TestReceive_NoSecretConfigured(t *testing.T) {
	processor := payments.NewEventProcessor(docstore.NewMemory(), metrics.NewNoop(), testLogger())
	h := NewStripeWebhookHandler(processor, "", metrics.NewNoop(), testLogger())

	rec := httptest.NewRecorder()
	h.Receive(rec, signedStripeRequest(webhookSecret, succeededEventPayload()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

type failingProcessor struct{}

func (failingProcessor) Process(ctx context.Context, event stripe.Event) error {
	return errors.New("store unavailable")
}

func TestReceive_ProcessingFailureReturns500NoBody(t *testing.T) {
	h := NewStripeWebhookHandler(failingProcessor{}, webhookSecret, metrics.NewNoop(), testLogger())

	rec := httptest.NewRecorder()
	h.Receive(rec, signedStripeRequest(webhookSecret, succeededEventPayload()))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}
