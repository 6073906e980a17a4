// Package keystore manages hardware-style P-256 signing keys addressed by
// alias. Signing requires a one-use grant from the biometric ceremony, and
// every key is tagged with the enrollment set it was created under.
package keystore

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"

	"github.com/voyapay/voyapay/internal/biometric"
)

var (
	// ErrNotFound is returned when no key exists under the alias.
	ErrNotFound = errors.New("key not found")
	// ErrAliasExists is returned when generating over an existing alias.
	ErrAliasExists = errors.New("alias already in use")
	// ErrGrantRequired is returned when signing without a live grant.
	ErrGrantRequired = errors.New("signing requires an unspent grant for this alias")
)

// Store holds signing keys.
type Store interface {
	// Generate creates a P-256 key under alias, tagged with the enrollment
	// set, and returns the base64 PKIX public key.
	Generate(ctx context.Context, alias, enrollment string) (string, error)
	// Contains reports whether a key exists under alias.
	Contains(ctx context.Context, alias string) (bool, error)
	// Enrollment returns the enrollment tag the alias was created under.
	Enrollment(ctx context.Context, alias string) (string, error)
	// Sign produces an ASN.1 DER ECDSA signature over data. The grant is
	// consumed; a spent or mismatched grant fails with ErrGrantRequired.
	Sign(ctx context.Context, alias string, data []byte, grant *biometric.Grant) ([]byte, error)
	// Delete removes the key under alias, if any.
	Delete(ctx context.Context, alias string) error
}

func generateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

func encodePublicKey(key *ecdsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// signData hashes with SHA-256 and signs the digest, matching the
// SHA256withECDSA scheme verifiers expect.
func signData(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, key, digest[:])
}
