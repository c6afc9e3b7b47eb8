package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"trillion-shopify-app/internal/domain"
)

// Verifier validates the signed query string of an OAuth install callback
// against the shared app secret.
type Verifier struct {
	secret string
}

// NewVerifier creates a callback verifier.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify recomputes the keyed hash over the callback parameters, excluding
// the hmac and signature keys, sorted by key and joined as key=value pairs
// with "&". Values are used verbatim; repeated parameters are joined with a
// comma. The comparison is constant-time.
func (v *Verifier) Verify(params url.Values) error {
	claimed := params.Get("hmac")
	if claimed == "" {
		return &domain.AuthError{Msg: "missing hmac parameter"}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(params[k], ","))
	}
	message := strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(claimed))) {
		return &domain.AuthError{Msg: "hmac validation failed"}
	}
	return nil
}
