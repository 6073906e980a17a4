package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voyapay/voyapay/internal/auth"
	"github.com/voyapay/voyapay/internal/handler/dto"
	"github.com/voyapay/voyapay/internal/idempotency"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/model"
	"github.com/voyapay/voyapay/internal/payments"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockPaymentService records calls and returns canned results.
type mockPaymentService struct {
	createCalls  int
	lastInput    payments.CreateIntentInput
	createErr    error
	listErr      error
	savedMethods []model.PaymentMethod
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, caller auth.Identity, in payments.CreateIntentInput) (payments.Intent, error) {
	m.createCalls++
	m.lastInput = in
	if in.Amount < payments.MinAmountMinorUnits {
		return payments.Intent{}, payments.ErrInvalidAmount
	}
	if m.createErr != nil {
		return payments.Intent{}, m.createErr
	}
	return payments.Intent{ClientSecret: "pi_secret_123", PaymentIntentID: "pi_123"}, nil
}

func (m *mockPaymentService) ListSavedMethods(ctx context.Context, caller auth.Identity) ([]model.PaymentMethod, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.savedMethods, nil
}

func newPaymentHandler(service PaymentService) *PaymentHandler {
	return NewPaymentHandler(service, idempotency.NewMemory(), metrics.NewNoop(), testLogger())
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	identity := auth.Identity{UID: "user-1", Email: "traveler@example.com"}
	return req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	service := &mockPaymentService{}
	h := newPaymentHandler(service)

	body := []byte(`{"amount": 2500, "currency": "EUR"}`)
	rec := httptest.NewRecorder()
	h.CreatePaymentIntent(rec, authedRequest(http.MethodPost, "/create-payment-intent", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response dto.CreatePaymentIntentResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ClientSecret != "pi_secret_123" || response.PaymentIntentID != "pi_123" {
		t.Errorf("unexpected response: %+v", response)
	}
	if service.lastInput.Amount != 2500 || service.lastInput.Currency != "EUR" {
		t.Errorf("unexpected service input: %+v", service.lastInput)
	}
}

func TestCreatePaymentIntent_RoundsFractionalAmounts(t *testing.T) {
	service := &mockPaymentService{}
	h := newPaymentHandler(service)

	rec := httptest.NewRecorder()
	h.CreatePaymentIntent(rec, authedRequest(http.MethodPost, "/create-payment-intent", []byte(`{"amount": 2499.6}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if service.lastInput.Amount != 2500 {
		t.Errorf("expected rounded amount 2500, got %d", service.lastInput.Amount)
	}
}

func TestCreatePaymentIntent_InvalidAmount(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing amount", `{"currency": "usd"}`},
		{"non-numeric amount", `{"amount": "lots"}`},
		{"malformed body", `{"amount": `},
		{"below minimum", `{"amount": 49}`},
		{"zero", `{"amount": 0}`},
		{"negative", `{"amount": -500}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newPaymentHandler(&mockPaymentService{})
			rec := httptest.NewRecorder()
			h.CreatePaymentIntent(rec, authedRequest(http.MethodPost, "/create-payment-intent", []byte(tc.body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			var response map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response["error"] != "Invalid amount" {
				t.Errorf("expected 'Invalid amount', got %q", response["error"])
			}
		})
	}
}

func TestCreatePaymentIntent_NoIdentity(t *testing.T) {
	h := newPaymentHandler(&mockPaymentService{})

	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", bytes.NewReader([]byte(`{"amount": 2500}`)))
	rec := httptest.NewRecorder()
	h.CreatePaymentIntent(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestCreatePaymentIntent_ServiceFailure(t *testing.T) {
	service := &mockPaymentService{createErr: errors.New("stripe is down")}
	h := newPaymentHandler(service)

	rec := httptest.NewRecorder()
	h.CreatePaymentIntent(rec, authedRequest(http.MethodPost, "/create-payment-intent", []byte(`{"amount": 2500}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("stripe is down")) {
		t.Error("internal error detail leaked to the client")
	}
}

func TestCreatePaymentIntent_IdempotencyReplay(t *testing.T) {
	service := &mockPaymentService{}
	rec := metrics.NewInMemory()
	h := NewPaymentHandler(service, idempotency.NewMemory(), rec, testLogger())

	body := []byte(`{"amount": 2500}`)
	send := func() *httptest.ResponseRecorder {
		req := authedRequest(http.MethodPost, "/create-payment-intent", body)
		req.Header.Set(HeaderIdempotencyKey, "retry-abc")
		w := httptest.NewRecorder()
		h.CreatePaymentIntent(w, req)
		return w
	}

	first := send()
	second := send()

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", first.Code, second.Code)
	}
	if service.createCalls != 1 {
		t.Errorf("expected one service call, got %d", service.createCalls)
	}
	if first.Body.String() == "" || !bytes.Equal(bytes.TrimSpace(first.Body.Bytes()), bytes.TrimSpace(second.Body.Bytes())) {
		t.Errorf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
	if rec.Snapshot().IdempotentReplays != 1 {
		t.Errorf("expected one recorded replay, got %d", rec.Snapshot().IdempotentReplays)
	}
	if service.lastInput.IdempotencyKey != "retry-abc" {
		t.Errorf("expected key forwarded to service, got %q", service.lastInput.IdempotencyKey)
	}
}

func TestCreatePaymentIntent_DifferentBodyIsNotReplayed(t *testing.T) {
	service := &mockPaymentService{}
	h := newPaymentHandler(service)

	for _, body := range []string{`{"amount": 2500}`, `{"amount": 5000}`} {
		req := authedRequest(http.MethodPost, "/create-payment-intent", []byte(body))
		req.Header.Set(HeaderIdempotencyKey, "retry-abc")
		w := httptest.NewRecorder()
		h.CreatePaymentIntent(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	}

	if service.createCalls != 2 {
		t.Errorf("expected two service calls for distinct bodies, got %d", service.createCalls)
	}
}

func TestListPaymentMethods(t *testing.T) {
	service := &mockPaymentService{savedMethods: []model.PaymentMethod{
		{ID: "pm_1", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030, Type: "card"},
	}}
	h := newPaymentHandler(service)

	rec := httptest.NewRecorder()
	h.ListPaymentMethods(rec, authedRequest(http.MethodGet, "/payment-methods", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var response dto.PaymentMethodListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.PaymentMethods) != 1 || response.PaymentMethods[0].Last4 != "4242" {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestListPaymentMethods_EmptyListIsNotNull(t *testing.T) {
	service := &mockPaymentService{savedMethods: []model.PaymentMethod{}}
	h := newPaymentHandler(service)

	rec := httptest.NewRecorder()
	h.ListPaymentMethods(rec, authedRequest(http.MethodGet, "/payment-methods", nil))

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["paymentMethods"]) != "[]" {
		t.Errorf("expected [], got %s", raw["paymentMethods"])
	}
}
