// Package payments integrates the gateway with the Stripe API and mirrors
// processor objects into the document store.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"github.com/voyapay/voyapay/internal/auth"
	"github.com/voyapay/voyapay/internal/docstore"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/model"
)

// MinAmountMinorUnits is the smallest accepted charge, in currency minor units.
const MinAmountMinorUnits = 50

// MetadataUIDKey tags processor objects with the owning caller identity.
const MetadataUIDKey = "uid"

// ErrInvalidAmount rejects amounts below the minimum before any processor call.
var ErrInvalidAmount = errors.New("invalid amount")

// NewStripeClient builds a Stripe client. With no secret configured it falls
// back to a dummy key so the endpoints still mount in emulator setups; every
// processor call then fails upstream instead of at startup.
func NewStripeClient(secretKey string) *client.API {
	if secretKey == "" {
		secretKey = "sk_test_dummy"
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return sc
}

// Service owns customer resolution, payment intent creation, and saved
// payment method listing.
type Service struct {
	sc      *client.API
	store   docstore.Store
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service.
func NewService(sc *client.API, store docstore.Store, rec metrics.Recorder, logger *slog.Logger) *Service {
	return &Service{
		sc:      sc,
		store:   store,
		metrics: rec,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateIntentInput is the validated input for CreateIntent.
type CreateIntentInput struct {
	// Amount in currency minor units, already rounded to an integer.
	Amount int64
	// Currency defaults to "usd" and is lowercased before the processor call.
	Currency string
	// CustomerID, when supplied by the caller, skips the stored-customer lookup.
	CustomerID string
	// Metadata is merged with the caller identity tag.
	Metadata map[string]string
	// IdempotencyKey, when present, is forwarded to the processor.
	IdempotencyKey string
}

// Intent is the gateway-facing result of a created payment intent.
type Intent struct {
	ClientSecret    string
	PaymentIntentID string
}

// CreateIntent resolves or creates the caller's processor customer, creates a
// card payment intent, and persists a denormalized record under the caller.
func (s *Service) CreateIntent(ctx context.Context, caller auth.Identity, in CreateIntentInput) (Intent, error) {
	if in.Amount < MinAmountMinorUnits {
		return Intent{}, ErrInvalidAmount
	}

	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = "usd"
	}

	customerID := in.CustomerID
	if customerID == "" {
		var err error
		customerID, err = s.ensureCustomer(ctx, caller)
		if err != nil {
			return Intent{}, err
		}
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(in.Amount),
		Currency:           stripe.String(currency),
		Customer:           stripe.String(customerID),
		ReceiptEmail:       stripe.String(caller.Email),
		Description:        stripe.String("Voyapay booking"),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ConfirmationMethod: stripe.String(string(stripe.PaymentIntentConfirmationMethodAutomatic)),
		Confirm:            stripe.Bool(false),
	}
	params.AddMetadata(MetadataUIDKey, caller.UID)
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to create payment intent: %w", err)
	}

	record := docstore.Document{
		"stripeId":  pi.ID,
		"amount":    pi.Amount,
		"currency":  string(pi.Currency),
		"status":    string(pi.Status),
		"type":      string(model.RecordTypePaymentIntent),
		"createdAt": s.now().UTC(),
		"uid":       caller.UID,
	}
	if err := s.store.Set(ctx, docstore.UserPaymentPath(caller.UID, pi.ID), record); err != nil {
		return Intent{}, fmt.Errorf("failed to persist payment record %s: %w", pi.ID, err)
	}

	s.metrics.IncPaymentIntentCreated()
	s.logger.Info("payment intent created",
		slog.String("payment_intent_id", pi.ID),
		slog.Int64("amount", pi.Amount),
		slog.String("currency", string(pi.Currency)),
	)

	return Intent{ClientSecret: pi.ClientSecret, PaymentIntentID: pi.ID}, nil
}

// ListSavedMethods returns the caller's saved card payment methods. A caller
// with no stored customer id gets an empty list and no processor call is made.
func (s *Service) ListSavedMethods(ctx context.Context, caller auth.Identity) ([]model.PaymentMethod, error) {
	customerID, err := s.storedCustomerID(ctx, caller.UID)
	if err != nil {
		return nil, err
	}
	if customerID == "" {
		return []model.PaymentMethod{}, nil
	}

	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String("card"),
	}
	params.Limit = stripe.Int64(20)

	methods := []model.PaymentMethod{}
	iter := s.sc.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		method := model.PaymentMethod{
			ID:   pm.ID,
			Type: string(pm.Type),
		}
		if pm.Card != nil {
			method.Brand = string(pm.Card.Brand)
			method.Last4 = pm.Card.Last4
			method.ExpMonth = int64(pm.Card.ExpMonth)
			method.ExpYear = int64(pm.Card.ExpYear)
		}
		methods = append(methods, method)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}

	return methods, nil
}

// ensureCustomer returns the caller's processor customer id, creating the
// customer and merging the id back into the profile document on first use.
func (s *Service) ensureCustomer(ctx context.Context, caller auth.Identity) (string, error) {
	customerID, err := s.storedCustomerID(ctx, caller.UID)
	if err != nil {
		return "", err
	}
	if customerID != "" {
		return customerID, nil
	}

	params := &stripe.CustomerParams{Email: stripe.String(caller.Email)}
	params.AddMetadata(MetadataUIDKey, caller.UID)

	customer, err := s.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	// Push the customer id to the profile immediately so retries reuse it.
	err = s.store.Set(ctx, docstore.UserPath(caller.UID), docstore.Document{
		"stripeCustomerId": customer.ID,
		"email":            caller.Email,
	})
	if err != nil {
		return customer.ID, fmt.Errorf("failed to persist customer id %s: %w", customer.ID, err)
	}

	s.logger.Info("stripe customer created",
		slog.String("customer_id", customer.ID),
		slog.String("uid", caller.UID),
	)
	return customer.ID, nil
}

func (s *Service) storedCustomerID(ctx context.Context, uid string) (string, error) {
	doc, ok, err := s.store.Get(ctx, docstore.UserPath(uid))
	if err != nil {
		return "", fmt.Errorf("failed to read profile for %s: %w", uid, err)
	}
	if !ok {
		return "", nil
	}
	id, _ := doc["stripeCustomerId"].(string)
	return id, nil
}
