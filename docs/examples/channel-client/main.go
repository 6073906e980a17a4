// Voyapay Channel Client Example
//
// This is a minimal example of how to drive the device key bridge over its
// loopback method channel: create a biometric key, then sign a challenge
// with it and verify the signature against the returned public key.
//
// Usage:
//   go run main.go
//
// The bridge must be running locally (default 127.0.0.1:9200).

package main

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

type call struct {
	Method string         `json:"method"`
	Args   map[string]any `json:"args,omitempty"`
}

type envelope struct {
	Result map[string]string `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	addr := os.Getenv("BRIDGE_ADDR")
	if addr == "" {
		addr = "127.0.0.1:9200"
	}
	endpoint := "http://" + addr + "/channel"

	// Step 1: create a key.
	created, err := invoke(endpoint, call{Method: "createBiometricKeyForUser"})
	if err != nil {
		log.Fatalf("createBiometricKeyForUser: %v", err)
	}
	deviceID := created["deviceId"]
	log.Printf("created key for device %s", deviceID)

	// Step 2: sign a random challenge.
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		log.Fatal(err)
	}
	signed, err := invoke(endpoint, call{
		Method: "signChallenge",
		Args: map[string]any{
			"deviceId":  deviceID,
			"challenge": base64.StdEncoding.EncodeToString(challenge),
		},
	})
	if err != nil {
		log.Fatalf("signChallenge: %v", err)
	}

	// Step 3: verify locally, the same way a server would.
	if err := verify(created["publicKey"], challenge, signed["signature"]); err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	log.Println("signature verified")
}

func invoke(endpoint string, c call) (map[string]string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	return env.Result, nil
}

func verify(publicKeyBase64 string, challenge []byte, signatureBase64 string) error {
	der, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return err
	}
	pubAny, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return err
	}
	pub, ok := pubAny.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("unexpected key type %T", pubAny)
	}

	sig, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(challenge)
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return fmt.Errorf("signature does not match")
	}
	return nil
}
