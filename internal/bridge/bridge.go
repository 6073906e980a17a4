// Package bridge dispatches biometric key method calls.
//
// The surface mirrors a mobile method channel: callers invoke a method by
// name with loosely typed arguments, and faults come back as coded errors
// rather than transport-level failures.
package bridge

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voyapay/voyapay/internal/biometric"
	"github.com/voyapay/voyapay/internal/keystore"
	"github.com/voyapay/voyapay/internal/metrics"
	"github.com/voyapay/voyapay/internal/settings"
)

// Method names the bridge dispatches on.
const (
	MethodCreateKey     = "createBiometricKeyForUser"
	MethodSignChallenge = "signChallenge"
	MethodOpenSettings  = "openBiometricSettings"
)

// Fault codes carried back to the caller.
const (
	CodeCreateKey      = "ERR_CREATE_KEY"
	CodeArgument       = "ARG_ERR"
	CodeNoKey          = "NO_KEY"
	CodeBiometric      = "BIO_ERROR"
	CodeSign           = "SIGN_ERR"
	CodeNotImplemented = "NOT_IMPLEMENTED"
)

// Error is a coded bridge fault delivered in-band to the caller.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Call is one method invocation.
type Call struct {
	Method string         `json:"method"`
	Args   map[string]any `json:"args,omitempty"`
}

// StringArg returns the named argument if it is a non-empty string.
func (c Call) StringArg(name string) (string, bool) {
	v, ok := c.Args[name].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Bridge wires the keystore, the presence ceremony, and the settings opener
// behind the method surface.
type Bridge struct {
	keys    keystore.Store
	auth    biometric.Authenticator
	opener  *settings.Opener
	metrics metrics.Recorder
	logger  *slog.Logger
}

// New creates a Bridge.
func New(keys keystore.Store, auth biometric.Authenticator, opener *settings.Opener, rec metrics.Recorder, logger *slog.Logger) *Bridge {
	return &Bridge{keys: keys, auth: auth, opener: opener, metrics: rec, logger: logger}
}

// KeyAlias derives the keystore alias for a device id.
func KeyAlias(deviceID string) string {
	return "biokey_" + deviceID
}

// Handle dispatches one call. A returned error is always a *Error.
func (b *Bridge) Handle(ctx context.Context, call Call) (any, error) {
	switch call.Method {
	case MethodCreateKey:
		return b.createKey(ctx)
	case MethodSignChallenge:
		return b.signChallenge(ctx, call)
	case MethodOpenSettings:
		b.opener.Open(ctx)
		return nil, nil
	default:
		return nil, &Error{Code: CodeNotImplemented, Message: fmt.Sprintf("unknown method %q", call.Method)}
	}
}

func (b *Bridge) createKey(ctx context.Context) (any, error) {
	deviceID := uuid.NewString()
	alias := KeyAlias(deviceID)

	publicKey, err := b.keys.Generate(ctx, alias, b.auth.Enrollment())
	if err != nil {
		return nil, &Error{Code: CodeCreateKey, Message: err.Error()}
	}

	b.metrics.IncKeyCreated()
	b.logger.Info("biometric key created", slog.String("device_id", deviceID))

	return map[string]string{
		"deviceId":  deviceID,
		"publicKey": publicKey,
		"keyAlias":  alias,
	}, nil
}

func (b *Bridge) signChallenge(ctx context.Context, call Call) (any, error) {
	deviceID, okDevice := call.StringArg("deviceId")
	challengeBase64, okChallenge := call.StringArg("challenge")
	if !okDevice || !okChallenge {
		b.metrics.IncChallengeSigned("arg_err")
		return nil, &Error{Code: CodeArgument, Message: "deviceId or challenge missing"}
	}

	alias := KeyAlias(deviceID)
	exists, err := b.keys.Contains(ctx, alias)
	if err != nil {
		// A store read failure is not the same as an absent key; NO_KEY
		// is reserved for aliases that are genuinely missing.
		b.metrics.IncChallengeSigned("sign_err")
		return nil, &Error{Code: CodeSign, Message: err.Error()}
	}
	if exists {
		// A key created under an older biometric enrollment set is
		// permanently invalidated; treat it as gone.
		tag, err := b.keys.Enrollment(ctx, alias)
		if err == nil && tag != b.auth.Enrollment() {
			_ = b.keys.Delete(ctx, alias)
			exists = false
			b.logger.Warn("key invalidated by enrollment change", slog.String("device_id", deviceID))
		}
	}
	if !exists {
		b.metrics.IncChallengeSigned("no_key")
		return nil, &Error{Code: CodeNoKey, Message: fmt.Sprintf("No key for alias %s", alias)}
	}

	grant, err := b.auth.Authenticate(ctx, biometric.Prompt{
		Title:  "Confirm biometrics",
		Reason: "Authenticate to sign challenge",
		Alias:  alias,
	})
	if err != nil {
		b.metrics.IncChallengeSigned("bio_error")
		var bioErr *biometric.Error
		if errors.As(err, &bioErr) {
			return nil, &Error{Code: CodeBiometric, Message: bioErr.Error()}
		}
		return nil, &Error{Code: CodeBiometric, Message: err.Error()}
	}

	challenge, err := base64.StdEncoding.DecodeString(challengeBase64)
	if err != nil {
		b.metrics.IncChallengeSigned("sign_err")
		return nil, &Error{Code: CodeSign, Message: err.Error()}
	}

	signature, err := b.keys.Sign(ctx, alias, challenge, grant)
	if err != nil {
		b.metrics.IncChallengeSigned("sign_err")
		return nil, &Error{Code: CodeSign, Message: err.Error()}
	}

	b.metrics.IncChallengeSigned("signed")
	b.logger.Info("challenge signed", slog.String("device_id", deviceID))

	return map[string]string{
		"signature": base64.StdEncoding.EncodeToString(signature),
	}, nil
}
