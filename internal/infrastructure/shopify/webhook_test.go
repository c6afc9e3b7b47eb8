package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"trillion-shopify-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifierAcceptsValidSignature(t *testing.T) {
	v := NewWebhookVerifier("shhh")
	payload := []byte(`{"domain":"example.myshopify.com"}`)

	require.NoError(t, v.Verify(payload, signPayload("shhh", payload)))
}

func TestWebhookVerifierRejectsTamperedPayload(t *testing.T) {
	v := NewWebhookVerifier("shhh")
	payload := []byte(`{"domain":"example.myshopify.com"}`)
	sig := signPayload("shhh", payload)

	err := v.Verify([]byte(`{"domain":"evil.myshopify.com"}`), sig)
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestWebhookVerifierRejectsMissingHeader(t *testing.T) {
	v := NewWebhookVerifier("shhh")

	err := v.Verify([]byte(`{}`), "")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "missing")
}
