// Package biometric models the user-presence ceremony that gates signing.
//
// An Authenticator runs the ceremony and mints a one-use Grant on success.
// The keystore consumes the grant when it signs, so a single ceremony never
// authorizes more than one signature.
package biometric

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Ceremony failure codes, mirroring the platform prompt's error surface.
const (
	CodeHardwareUnavailable = 1
	CodeUnableToProcess     = 2
	CodeTimeout             = 3
	CodeLockout             = 7
	CodeUserCanceled        = 10
	CodeNoBiometrics        = 11
	CodeNegativeButton      = 13
)

// Error is a ceremony failure with the platform's numeric code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Prompt describes what the ceremony asks the user to approve.
type Prompt struct {
	Title  string
	Reason string
	// Alias names the key the grant will be bound to.
	Alias string
}

// Grant is a one-use authorization minted by a successful ceremony.
type Grant struct {
	ID       string
	Alias    string
	consumed bool
	mu       *sync.Mutex
}

// NewGrant mints a grant bound to a key alias.
func NewGrant(alias string) *Grant {
	return &Grant{
		ID:    ulid.Make().String(),
		Alias: alias,
		mu:    &sync.Mutex{},
	}
}

// Consume marks the grant spent. It returns false if already spent or if the
// grant is bound to a different alias.
func (g *Grant) Consume(alias string) bool {
	if g == nil || g.Alias != alias {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.consumed {
		return false
	}
	g.consumed = true
	return true
}

// Authenticator runs the presence ceremony.
type Authenticator interface {
	// Authenticate blocks until the user responds to the prompt.
	Authenticate(ctx context.Context, prompt Prompt) (*Grant, error)
	// Enrollment identifies the current biometric enrollment set. The tag
	// changes whenever the user adds or removes a biometric, which
	// invalidates keys created under the old set.
	Enrollment() string
}

// StaticAuthenticator is a deterministic Authenticator for development and
// tests. It approves every prompt unless a failure is configured.
type StaticAuthenticator struct {
	mu         sync.Mutex
	enrollment string
	failWith   *Error
}

// NewStaticAuthenticator creates an approving authenticator with the given
// enrollment tag.
func NewStaticAuthenticator(enrollment string) *StaticAuthenticator {
	return &StaticAuthenticator{enrollment: enrollment}
}

// Authenticate approves the prompt, or fails with the configured error.
func (a *StaticAuthenticator) Authenticate(ctx context.Context, prompt Prompt) (*Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: CodeTimeout, Message: err.Error()}
	}
	a.mu.Lock()
	failWith := a.failWith
	a.mu.Unlock()
	if failWith != nil {
		return nil, failWith
	}
	return NewGrant(prompt.Alias), nil
}

// Enrollment returns the current enrollment tag.
func (a *StaticAuthenticator) Enrollment() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enrollment
}

// FailWith makes every subsequent ceremony fail with the given error.
// Pass nil to approve again.
func (a *StaticAuthenticator) FailWith(err *Error) {
	a.mu.Lock()
	a.failWith = err
	a.mu.Unlock()
}

// Reenroll changes the enrollment tag, simulating the user adding or
// removing a biometric.
func (a *StaticAuthenticator) Reenroll(enrollment string) {
	a.mu.Lock()
	a.enrollment = enrollment
	a.mu.Unlock()
}
