// Package profile seeds and maintains user profile documents.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/voyapay/voyapay/internal/docstore"
	"github.com/voyapay/voyapay/internal/model"
)

// NewAccount carries the identity fields delivered by the account hook.
type NewAccount struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl"`
}

// Service writes profile documents into the document store.
type Service struct {
	store  docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(store docstore.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Ensure seeds the profile document for a freshly created account. The write
// is a merge, so fields set by earlier requests, like a stored processor
// customer id, survive hook redelivery.
func (s *Service) Ensure(ctx context.Context, account NewAccount) error {
	if account.UID == "" {
		return fmt.Errorf("account payload is missing a uid")
	}

	now := s.now().UTC()
	doc := docstore.Document{
		"fullName":            account.DisplayName,
		"email":               account.Email,
		"photoUrl":            account.PhotoURL,
		"country":             nil,
		"travelStyle":         nil,
		"dreamTrip":           nil,
		"preferredActivities": []string{},
		"memberSince":         now,
		"createdAt":           now,
		"updatedAt":           now,
	}
	if err := s.store.Set(ctx, docstore.UserPath(account.UID), doc); err != nil {
		return fmt.Errorf("failed to seed profile for %s: %w", account.UID, err)
	}

	s.logger.Info("profile seeded", slog.String("uid", account.UID))
	return nil
}

// Get reads the profile document into its typed form.
func (s *Service) Get(ctx context.Context, uid string) (*model.Profile, bool, error) {
	doc, ok, err := s.store.Get(ctx, docstore.UserPath(uid))
	if err != nil || !ok {
		return nil, false, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode profile for %s: %w", uid, err)
	}
	profile := &model.Profile{UID: uid}
	if err := json.Unmarshal(raw, profile); err != nil {
		return nil, false, fmt.Errorf("failed to decode profile for %s: %w", uid, err)
	}
	return profile, true, nil
}
