// Package hooksig verifies HMAC signatures on identity-provider hooks.
//
// The provider signs each delivery over "{timestamp}.{body}" with a shared
// secret and sends the hex HMAC-SHA256 in X-Voyapay-Signature plus the Unix
// timestamp in X-Voyapay-Timestamp.
package hooksig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrNoSecret is returned when no hook secret is configured.
	ErrNoSecret = errors.New("hook secret not configured")
)

// Header names for signed hook deliveries.
const (
	HeaderSignature = "X-Voyapay-Signature"
	HeaderTimestamp = "X-Voyapay-Timestamp"
)

// DefaultReplayWindow is the default replay protection window.
const DefaultReplayWindow = 5 * time.Minute

// GenerateSignature creates the HMAC-SHA256 signature for a hook payload.
// The canonical string format is: "{timestamp}.{payload}"
func GenerateSignature(secret string, timestamp int64, payload []byte) string {
	canonical := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature verifies a hook signature with replay protection.
func ValidateSignature(secret, signature string, timestamp int64, payload []byte, replayWindow time.Duration) error {
	if secret == "" {
		return ErrNoSecret
	}

	now := time.Now().Unix()
	if abs(now-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := GenerateSignature(secret, timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
