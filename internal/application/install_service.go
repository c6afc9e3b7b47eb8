package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/infrastructure/metrics"
	"trillion-shopify-app/internal/ports"

	"github.com/rs/zerolog"
)

// InstallService drives the OAuth install flow: building the authorization
// redirect and handling the signed callback.
type InstallService struct {
	store    ports.ShopStore
	states   ports.StateStore
	admin    ports.AdminClient
	verifier ports.CallbackVerifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	appURL   string
	apiKey   string
	scopes   string
}

// NewInstallService creates the install service. appURL is the public base URL
// of this app, apiKey the platform client id, scopes the comma-separated OAuth
// scope list.
func NewInstallService(
	store ports.ShopStore,
	states ports.StateStore,
	admin ports.AdminClient,
	verifier ports.CallbackVerifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
	appURL, apiKey, scopes string,
) *InstallService {
	return &InstallService{
		store:    store,
		states:   states,
		admin:    admin,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
		appURL:   strings.TrimSuffix(appURL, "/"),
		apiKey:   apiKey,
		scopes:   scopes,
	}
}

// ValidShopDomain reports whether shop looks like a real *.myshopify.com
// domain. Everything else is rejected before any redirect or remote call.
func ValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return false
	}
	name := strings.TrimSuffix(shop, ".myshopify.com")
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// AuthorizeURL validates the shop, mints a one-shot state nonce, and returns
// the platform authorization URL to redirect the merchant to.
func (s *InstallService) AuthorizeURL(ctx context.Context, shop string) (string, error) {
	if shop == "" {
		return "", domain.NewValidationError("missing shop parameter")
	}
	if !ValidShopDomain(shop) {
		return "", domain.NewValidationError("invalid shop domain %q", shop)
	}

	state, err := newStateNonce()
	if err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	if err := s.states.Save(ctx, state, shop); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", s.apiKey)
	q.Set("scope", s.scopes)
	q.Set("redirect_uri", s.appURL+"/auth/callback")
	q.Set("state", state)

	authURL := fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, q.Encode())

	s.logger.Info().Str("shop", shop).Msg("generated oauth authorization url")
	return authURL, nil
}

// HandleCallback validates the signed OAuth callback, exchanges the code for
// an access token, and persists the shop. Returns the installed shop domain.
func (s *InstallService) HandleCallback(ctx context.Context, params url.Values) (string, error) {
	shop := params.Get("shop")
	code := params.Get("code")
	state := params.Get("state")

	if shop == "" || code == "" || state == "" {
		return "", domain.NewValidationError("missing shop, code or state parameter")
	}
	if !ValidShopDomain(shop) {
		return "", domain.NewValidationError("invalid shop domain %q", shop)
	}

	if err := s.verifier.Verify(params); err != nil {
		s.logger.Warn().Str("shop", shop).Err(err).Msg("oauth callback failed hmac verification")
		return "", err
	}

	expectedShop, err := s.states.Consume(ctx, state)
	if err != nil {
		s.logger.Warn().Str("shop", shop).Err(err).Msg("oauth callback carried unknown state")
		return "", err
	}
	if expectedShop != shop {
		return "", &domain.AuthError{Msg: "oauth state was issued for a different shop"}
	}

	token, err := s.admin.ExchangeToken(ctx, shop, code)
	if err != nil {
		s.logger.Error().Str("shop", shop).Err(err).Msg("token exchange failed")
		return "", err
	}

	if err := s.store.UpsertShop(ctx, shop, token); err != nil {
		return "", err
	}

	s.metrics.InstallsTotal.Inc()
	s.logger.Info().Str("shop", shop).Msg("shop installed")
	return shop, nil
}

func newStateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
