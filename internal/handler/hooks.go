package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/voyapay/voyapay/internal/handler/dto"
	"github.com/voyapay/voyapay/internal/hooksig"
	"github.com/voyapay/voyapay/internal/profile"
)

// HookHandler receives signed deliveries from the identity provider.
type HookHandler struct {
	profiles *profile.Service
	secret   string
	logger   *slog.Logger
}

// NewHookHandler creates a HookHandler.
func NewHookHandler(profiles *profile.Service, secret string, logger *slog.Logger) *HookHandler {
	return &HookHandler{profiles: profiles, secret: secret, logger: logger}
}

// AccountCreated seeds the profile document for a new account.
//
// POST /hooks/account-created
func (h *HookHandler) AccountCreated(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	timestamp, err := strconv.ParseInt(r.Header.Get(hooksig.HeaderTimestamp), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}
	signature := r.Header.Get(hooksig.HeaderSignature)
	if err := hooksig.ValidateSignature(h.secret, signature, timestamp, body, hooksig.DefaultReplayWindow); err != nil {
		h.logger.Warn("rejected hook delivery", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var req dto.AccountCreatedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UID == "" {
		writeError(w, http.StatusBadRequest, "missing uid")
		return
	}

	err = h.profiles.Ensure(r.Context(), profile.NewAccount{
		UID:         req.UID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		h.logger.Error("failed to seed profile",
			slog.String("uid", req.UID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to seed profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
