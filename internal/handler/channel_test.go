package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voyapay/voyapay/internal/biometric"
	"github.com/voyapay/voyapay/internal/bridge"
	"github.com/voyapay/voyapay/internal/keystore"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/settings"
)

type channelResponse struct {
	Result map[string]string `json:"result"`
	Error  *channelError     `json:"error"`
}

func newChannelHandler(auth *biometric.StaticAuthenticator) *ChannelHandler {
	opener := settings.NewOpener(
		[]settings.Action{{Name: "noop", Run: func(ctx context.Context) error { return nil }}},
		testLogger(),
	)
	b := bridge.New(keystore.NewMemory(), auth, opener, metrics.NewNoop(), testLogger())
	return NewChannelHandler(b, testLogger())
}

func invoke(t *testing.T, h *ChannelHandler, call bridge.Call) (*httptest.ResponseRecorder, channelResponse) {
	t.Helper()
	body, err := json.Marshal(call)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/channel", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Invoke(rec, req)

	var response channelResponse
	if rec.Body.Len() > 0 {
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, response
}

func TestInvoke_CreateKey(t *testing.T) {
	h := newChannelHandler(biometric.NewStaticAuthenticator("enroll-1"))

	rec, response := invoke(t, h, bridge.Call{Method: bridge.MethodCreateKey})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if response.Error != nil {
		t.Fatalf("unexpected fault: %+v", response.Error)
	}
	if response.Result["deviceId"] == "" || response.Result["publicKey"] == "" {
		t.Errorf("unexpected result: %+v", response.Result)
	}
}

func TestInvoke_FaultsAreInBand(t *testing.T) {
	h := newChannelHandler(biometric.NewStaticAuthenticator("enroll-1"))

	rec, response := invoke(t, h, bridge.Call{
		Method: bridge.MethodSignChallenge,
		Args:   map[string]any{"deviceId": "ghost", "challenge": "aGk="},
	})
	// Method faults ride in the envelope, never in the HTTP status.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if response.Error == nil || response.Error.Code != bridge.CodeNoKey {
		t.Errorf("expected NO_KEY fault, got %+v", response.Error)
	}
}

func TestInvoke_OpenSettings(t *testing.T) {
	h := newChannelHandler(biometric.NewStaticAuthenticator("enroll-1"))

	rec, response := invoke(t, h, bridge.Call{Method: bridge.MethodOpenSettings})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if response.Error != nil || response.Result != nil {
		t.Errorf("expected empty envelope, got %+v", response)
	}
}

func TestInvoke_UnknownMethod(t *testing.T) {
	h := newChannelHandler(biometric.NewStaticAuthenticator("enroll-1"))

	rec, response := invoke(t, h, bridge.Call{Method: "selfDestruct"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if response.Error == nil || response.Error.Code != bridge.CodeNotImplemented {
		t.Errorf("expected NOT_IMPLEMENTED, got %+v", response.Error)
	}
}

func TestInvoke_BadRequests(t *testing.T) {
	h := newChannelHandler(biometric.NewStaticAuthenticator("enroll-1"))

	for _, body := range []string{`not json`, `{}`, `{"method": ""}`} {
		req := httptest.NewRequest(http.MethodPost, "/channel", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()
		h.Invoke(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status 400, got %d", body, rec.Code)
		}
	}
}
