package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"

	"github.com/voyapay/voyapay/internal/auth"
	"github.com/voyapay/voyapay/internal/handler/dto"
	"github.com/voyapay/voyapay/internal/idempotency"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/model"
	"github.com/voyapay/voyapay/internal/payments"
)

// HeaderIdempotencyKey lets callers retry create requests safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// PaymentService is what the payment endpoints need from the payments layer.
type PaymentService interface {
	CreateIntent(ctx context.Context, caller auth.Identity, in payments.CreateIntentInput) (payments.Intent, error)
	ListSavedMethods(ctx context.Context, caller auth.Identity) ([]model.PaymentMethod, error)
}

// PaymentHandler serves the payment endpoints.
type PaymentHandler struct {
	service PaymentService
	replays idempotency.Store
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(service PaymentService, replays idempotency.Store, rec metrics.Recorder, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, replays: replays, metrics: rec, logger: logger}
}

// CreatePaymentIntent creates a card payment intent for the caller.
//
// POST /create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing token")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	idemKey := r.Header.Get(HeaderIdempotencyKey)
	var fp idempotency.Fingerprint
	if idemKey != "" {
		fp = idempotency.NewFingerprint(idemKey, caller.UID, r.URL.Path, body)
		if record, found, err := h.replays.Get(r.Context(), fp); err == nil && found {
			h.metrics.IncIdempotentReplay()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.StatusCode)
			_, _ = w.Write(record.Body)
			return
		}
	}

	req, err := decodeCreateRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	// Amounts arrive in minor units and may carry a fractional part from
	// client-side float math. Round, then validate against the floor.
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	amount := int64(math.Round(*req.Amount))

	intent, err := h.service.CreateIntent(r.Context(), caller, payments.CreateIntentInput{
		Amount:         amount,
		Currency:       req.Currency,
		CustomerID:     req.CustomerID,
		Metadata:       req.Metadata,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		if errors.Is(err, payments.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		h.logger.Error("failed to create payment intent",
			slog.String("uid", caller.UID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}

	response := dto.CreatePaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.PaymentIntentID,
	}

	if idemKey != "" {
		h.storeReplay(r.Context(), fp, http.StatusOK, response)
	}
	writeJSON(w, http.StatusOK, response)
}

// ListPaymentMethods returns the caller's saved card payment methods.
//
// GET /payment-methods
func (h *PaymentHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing token")
		return
	}

	methods, err := h.service.ListSavedMethods(r.Context(), caller)
	if err != nil {
		h.logger.Error("failed to list payment methods",
			slog.String("uid", caller.UID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list payment methods")
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentMethodListResponse{PaymentMethods: methods})
}

// decodeCreateRequest rejects malformed bodies and non-numeric amounts alike.
func decodeCreateRequest(body []byte) (dto.CreatePaymentIntentRequest, error) {
	var req dto.CreatePaymentIntentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return dto.CreatePaymentIntentRequest{}, err
	}
	return req, nil
}

func (h *PaymentHandler) storeReplay(ctx context.Context, fp idempotency.Fingerprint, status int, response any) {
	record, err := idempotency.NewRecord(status, response)
	if err != nil {
		h.logger.Warn("failed to encode replay record", slog.String("error", err.Error()))
		return
	}
	if err := h.replays.Put(ctx, fp, record); err != nil {
		h.logger.Warn("failed to store replay record", slog.String("error", err.Error()))
	}
}
