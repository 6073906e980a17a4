package keystore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/voyapay/voyapay/internal/biometric"
)

// Argon2id parameters (OWASP 2024 recommended minimum).
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// keyFile is the sealed on-disk form of a single key.
type keyFile struct {
	Alias      string `json:"alias"`
	Enrollment string `json:"enrollment"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// File is a Store that seals each key into its own file with AES-GCM under
// an argon2id-derived key. One file per alias, named <alias>.key.
type File struct {
	dir        string
	passphrase []byte
	mu         sync.Mutex
}

// NewFile creates the directory if needed and returns a file-backed Store.
func NewFile(dir, passphrase string) (*File, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("keystore passphrase is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore dir %s: %w", dir, err)
	}
	return &File{dir: dir, passphrase: []byte(passphrase)}, nil
}

// Generate creates a key under alias and seals it to disk.
func (f *File) Generate(ctx context.Context, alias, enrollment string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.path(alias)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", ErrAliasExists
	}

	key, err := generateKey()
	if err != nil {
		return "", err
	}
	pub, err := encodePublicKey(key)
	if err != nil {
		return "", err
	}

	sealed, err := f.seal(alias, enrollment, key)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(sealed)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write key file for %s: %w", alias, err)
	}
	return pub, nil
}

// Contains reports whether a key file exists for alias.
func (f *File) Contains(ctx context.Context, alias string) (bool, error) {
	path, err := f.path(alias)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Enrollment returns the enrollment tag the alias was created under.
func (f *File) Enrollment(ctx context.Context, alias string) (string, error) {
	sealed, err := f.load(alias)
	if err != nil {
		return "", err
	}
	return sealed.Enrollment, nil
}

// Sign consumes the grant, unseals the key, and signs data.
func (f *File) Sign(ctx context.Context, alias string, data []byte, grant *biometric.Grant) ([]byte, error) {
	sealed, err := f.load(alias)
	if err != nil {
		return nil, err
	}
	if !grant.Consume(alias) {
		return nil, ErrGrantRequired
	}
	key, err := f.unseal(sealed)
	if err != nil {
		return nil, err
	}
	return signData(key, data)
}

// Delete removes the key file under alias, if any.
func (f *File) Delete(ctx context.Context, alias string) error {
	path, err := f.path(alias)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *File) path(alias string) (string, error) {
	if alias == "" || strings.ContainsAny(alias, `/\`) || strings.Contains(alias, "..") {
		return "", fmt.Errorf("invalid key alias %q", alias)
	}
	return filepath.Join(f.dir, alias+".key"), nil
}

func (f *File) load(alias string) (*keyFile, error) {
	path, err := f.path(alias)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var sealed keyFile
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("failed to decode key file for %s: %w", alias, err)
	}
	return &sealed, nil
}

func (f *File) seal(alias, enrollment string, key *ecdsa.PrivateKey) (*keyFile, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return &keyFile{
		Alias:      alias,
		Enrollment: enrollment,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, der, []byte(alias)),
	}, nil
}

func (f *File) unseal(sealed *keyFile) (*ecdsa.PrivateKey, error) {
	aead, err := f.aead(sealed.Salt)
	if err != nil {
		return nil, err
	}
	der, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, []byte(sealed.Alias))
	if err != nil {
		return nil, fmt.Errorf("failed to unseal key %s: %w", sealed.Alias, err)
	}
	return x509.ParseECPrivateKey(der)
}

func (f *File) aead(salt []byte) (cipher.AEAD, error) {
	derived := argon2.IDKey(f.passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
