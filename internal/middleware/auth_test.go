package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voyapay/voyapay/internal/auth"
)

var testSecret = []byte("test-secret")

func authedHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := auth.NewTokenVerifier(testSecret, "voyapay-auth", "voyapay-api")

	mw := Auth(AuthConfig{Logger: logger, Verifier: verifier})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			t.Error("expected identity in context")
		}
		w.Write([]byte(id.UID))
	}))
}

func TestAuth_MissingToken(t *testing.T) {
	h := authedHandler(t)

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/payment-methods", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["error"] == "" {
			t.Errorf("header %q: expected error message", header)
		}
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	h := authedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/payment-methods", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	h := authedHandler(t)

	token, err := auth.IssueToken(testSecret, "voyapay-auth", "voyapay-api", "user-1", "u@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/payment-methods", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("expected uid passthrough, got %q", rec.Body.String())
	}
}
