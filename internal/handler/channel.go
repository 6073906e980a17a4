package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/voyapay/voyapay/internal/bridge"
)

// ChannelHandler exposes the bridge over a loopback method-channel endpoint.
// Bridge faults travel in-band in the response envelope; the HTTP status
// stays 200 so callers distinguish transport failures from method faults.
type ChannelHandler struct {
	bridge *bridge.Bridge
	logger *slog.Logger
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(b *bridge.Bridge, logger *slog.Logger) *ChannelHandler {
	return &ChannelHandler{bridge: b, logger: logger}
}

// channelEnvelope is the response for one method invocation.
type channelEnvelope struct {
	Result any           `json:"result,omitempty"`
	Error  *channelError `json:"error,omitempty"`
}

type channelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Invoke dispatches one method call.
//
// POST /channel
func (h *ChannelHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	var call bridge.Call
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if call.Method == "" {
		writeError(w, http.StatusBadRequest, "missing method")
		return
	}

	result, err := h.bridge.Handle(r.Context(), call)
	if err != nil {
		var fault *bridge.Error
		if !errors.As(err, &fault) {
			h.logger.Error("bridge returned an uncoded error",
				slog.String("method", call.Method),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, channelEnvelope{
			Error: &channelError{Code: fault.Code, Message: fault.Message},
		})
		return
	}

	writeJSON(w, http.StatusOK, channelEnvelope{Result: result})
}
