// Command issue-token mints a bearer token for local testing against the
// gateway. The secret, issuer, and audience must match the server's
// AUTH_TOKEN_SECRET, AUTH_ISSUER, and AUTH_AUDIENCE.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/voyapay/voyapay/internal/auth"
)

type output struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func main() {
	var (
		secret   = flag.String("secret", os.Getenv("AUTH_TOKEN_SECRET"), "Token signing secret")
		issuer   = flag.String("issuer", "voyapay-auth", "Token issuer")
		audience = flag.String("audience", "voyapay-api", "Token audience")
		uid      = flag.String("uid", "local-user", "Subject uid")
		email    = flag.String("email", "local@voyapay.test", "Subject email")
		ttl      = flag.Duration("ttl", time.Hour, "Token lifetime")
		format   = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_TOKEN_SECRET is required")
		os.Exit(1)
	}

	token, err := auth.IssueToken([]byte(*secret), *issuer, *audience, *uid, *email, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		out := output{
			UID:       *uid,
			Email:     *email,
			Token:     token,
			ExpiresAt: time.Now().Add(*ttl).UTC().Format(time.RFC3339),
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			os.Exit(1)
		}
		return
	}

	fmt.Println(token)
}
