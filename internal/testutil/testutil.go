// Package testutil provides shared helpers for tests.
package testutil

import (
	"os"
	"testing"
)

// RequireEnv returns an environment variable or skips the test if missing.
// Integration tests against Postgres or Redis are gated on their DSNs.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}
