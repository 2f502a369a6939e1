package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// verifySignature verifies a GitHub X-Hub-Signature-256 value against
// the raw request body.
//
// Only the "sha256=<hex>" format is accepted. Missing header, wrong
// algorithm prefix, malformed hex, and digest mismatch all fail the
// same way: verification fails closed and the error is generic to
// prevent information leakage.
func verifySignature(body []byte, signature, secret string) error {
	if secret == "" {
		return fmt.Errorf("webhook verification failed")
	}

	actualMAC, err := parseSignature(signature)
	if err != nil {
		return fmt.Errorf("webhook verification failed")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedMAC := mac.Sum(nil)

	// Constant-time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare(expectedMAC, actualMAC) != 1 {
		return fmt.Errorf("webhook verification failed")
	}

	return nil
}

// parseSignature extracts the raw digest bytes from a
// "sha256=<hex>" header value.
func parseSignature(signature string) ([]byte, error) {
	hexSig, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return nil, fmt.Errorf("unsupported signature format")
	}
	return hex.DecodeString(hexSig)
}

// computeSignature computes the hex HMAC-SHA256 digest for a body.
// Used by tests to build valid headers.
func computeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// formatSignature renders a hex digest in GitHub's header format.
func formatSignature(hexSig string) string {
	return "sha256=" + hexSig
}
