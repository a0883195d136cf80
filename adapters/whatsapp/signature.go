package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/twokeyapp/lahja/domain/entities"
)

const signaturePrefix = "sha256="

// VerifySignature checks the X-Hub-Signature-256 header Meta attaches to
// webhook deliveries: an HMAC-SHA256 of the raw body keyed with the app
// secret, hex encoded. Comparison is constant time. Any mismatch or missing
// header is an authentication failure; the caller must reject the request
// before touching session state.
func VerifySignature(body []byte, signatureHeader, appSecret string) error {
	if appSecret == "" {
		return fmt.Errorf("app secret not configured: %w", entities.ErrConfigMissing)
	}
	if !strings.HasPrefix(signatureHeader, signaturePrefix) {
		return fmt.Errorf("missing or malformed signature header: %w", entities.ErrAuthFailure)
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(signatureHeader, signaturePrefix))
	if err != nil {
		return fmt.Errorf("signature is not valid hex: %w", entities.ErrAuthFailure)
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return fmt.Errorf("signature mismatch: %w", entities.ErrAuthFailure)
	}
	return nil
}

// VerifyToken checks the hub.verify_token presented during the GET
// subscription handshake against the configured token.
func VerifyToken(presented, configured string) error {
	if configured == "" {
		return fmt.Errorf("verify token not configured: %w", entities.ErrConfigMissing)
	}
	if presented != configured {
		return fmt.Errorf("verify token mismatch: %w", entities.ErrAuthFailure)
	}
	return nil
}
