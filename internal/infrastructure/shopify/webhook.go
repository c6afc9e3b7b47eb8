package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"trillion-shopify-app/internal/domain"
)

// WebhookVerifier validates webhook payloads against the shared app secret.
// Unlike the OAuth callback, webhook signatures are base64-encoded and cover
// the raw request body.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a webhook verifier.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify checks the X-Shopify-Hmac-SHA256 header against the payload. The
// comparison is constant-time.
func (v *WebhookVerifier) Verify(payload []byte, hmacHeader string) error {
	if hmacHeader == "" {
		return &domain.AuthError{Msg: "missing webhook hmac header"}
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hmacHeader)) {
		return &domain.AuthError{Msg: "webhook signature validation failed"}
	}
	return nil
}
