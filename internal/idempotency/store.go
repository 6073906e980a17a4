// Package idempotency records gateway responses so duplicate requests carrying
// the same Idempotency-Key replay the original response instead of creating a
// second payment intent.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// DefaultTTL is how long a recorded response stays replayable.
const DefaultTTL = 24 * time.Hour

// Fingerprint identifies a request uniquely for idempotency purposes:
// caller-supplied key + authenticated subject + route + body hash.
type Fingerprint struct {
	Key      string
	Subject  string
	Route    string
	BodyHash string
}

// NewFingerprint builds a Fingerprint, hashing the raw request body.
func NewFingerprint(key, subject, route string, body []byte) Fingerprint {
	sum := sha256.Sum256(body)
	return Fingerprint{
		Key:      key,
		Subject:  subject,
		Route:    route,
		BodyHash: hex.EncodeToString(sum[:]),
	}
}

// hash renders the fingerprint as a fixed-length storage key.
func (fp Fingerprint) hash() string {
	sum := sha256.Sum256([]byte(fp.Key + "\x00" + fp.Subject + "\x00" + fp.Route + "\x00" + fp.BodyHash))
	return hex.EncodeToString(sum[:])
}

// Record is the stored response replayed for a duplicate request.
type Record struct {
	StatusCode int       `json:"status_code"`
	Body       []byte    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRecord encodes a response body for replay.
func NewRecord(statusCode int, response any) (Record, error) {
	body, err := json.Marshal(response)
	if err != nil {
		return Record{}, err
	}
	return Record{StatusCode: statusCode, Body: body, CreatedAt: time.Now().UTC()}, nil
}

// Store persists idempotency records.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
