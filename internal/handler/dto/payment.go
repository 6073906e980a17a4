// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/voyapay/voyapay/internal/model"

// CreatePaymentIntentRequest represents the request body for creating a
// payment intent. Amount is a pointer so a missing field can be told apart
// from zero; non-numeric values surface as a JSON type error on decode.
type CreatePaymentIntentRequest struct {
	Amount     *float64          `json:"amount"`
	Currency   string            `json:"currency,omitempty"`
	CustomerID string            `json:"customerId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// CreatePaymentIntentResponse represents a created payment intent.
type CreatePaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentMethodListResponse wraps the saved payment methods list.
type PaymentMethodListResponse struct {
	PaymentMethods []model.PaymentMethod `json:"paymentMethods"`
}

// AccountCreatedRequest represents the account hook payload.
type AccountCreatedRequest struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}
