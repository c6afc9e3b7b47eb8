package application

import (
	"context"
	"net/url"
	"os"
	"testing"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstallService(store *fakeStore, states *fakeStates, admin *fakeAdmin, verifier *fakeVerifier) *InstallService {
	return NewInstallService(
		store, states, admin, verifier,
		metrics.New(prometheus.NewRegistry()),
		zerolog.New(os.Stderr),
		"https://app.example.com",
		"client-id-1",
		"read_products,write_themes",
	)
}

func TestValidShopDomain(t *testing.T) {
	cases := []struct {
		shop  string
		valid bool
	}{
		{"example.myshopify.com", true},
		{"my-store-2.myshopify.com", true},
		{"", false},
		{".myshopify.com", false},
		{"example.com", false},
		{"evil.com/?x=.myshopify.com", false},
		{"sub.domain.myshopify.com", false},
		{"UPPER.myshopify.com", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidShopDomain(tc.shop), tc.shop)
	}
}

func TestAuthorizeURLRejectsInvalidShop(t *testing.T) {
	svc := newInstallService(newFakeStore(), newFakeStates(), newFakeAdmin(), &fakeVerifier{})

	_, err := svc.AuthorizeURL(context.Background(), "")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.AuthorizeURL(context.Background(), "not-a-shop.com")
	require.ErrorAs(t, err, &validationErr)
}

func TestAuthorizeURLMintsStateAndRedirect(t *testing.T) {
	states := newFakeStates()
	svc := newInstallService(newFakeStore(), states, newFakeAdmin(), &fakeVerifier{})

	authURL, err := svc.AuthorizeURL(context.Background(), "example.myshopify.com")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "example.myshopify.com", u.Host)
	assert.Equal(t, "/admin/oauth/authorize", u.Path)
	assert.Equal(t, "client-id-1", u.Query().Get("client_id"))
	assert.Equal(t, "https://app.example.com/auth/callback", u.Query().Get("redirect_uri"))

	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	shop, err := states.Consume(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "example.myshopify.com", shop)
}

func callbackParams(shop, code, state string) url.Values {
	params := url.Values{}
	params.Set("shop", shop)
	params.Set("code", code)
	params.Set("state", state)
	params.Set("hmac", "aa")
	return params
}

func TestHandleCallbackRejectsMissingParams(t *testing.T) {
	svc := newInstallService(newFakeStore(), newFakeStates(), newFakeAdmin(), &fakeVerifier{})

	_, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "", "st"))
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestHandleCallbackRejectsBadSignature(t *testing.T) {
	states := newFakeStates()
	states.Save(context.Background(), "st", "example.myshopify.com")
	store := newFakeStore()
	svc := newInstallService(store, states, newFakeAdmin(), &fakeVerifier{err: &domain.AuthError{Msg: "hmac validation failed"}})

	_, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code", "st"))
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, store.shops)
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	svc := newInstallService(newFakeStore(), newFakeStates(), newFakeAdmin(), &fakeVerifier{})

	_, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code", "never-issued"))
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestHandleCallbackRejectsShopMismatch(t *testing.T) {
	states := newFakeStates()
	states.Save(context.Background(), "st", "other.myshopify.com")
	svc := newInstallService(newFakeStore(), states, newFakeAdmin(), &fakeVerifier{})

	_, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code", "st"))
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestHandleCallbackInstallsShop(t *testing.T) {
	states := newFakeStates()
	states.Save(context.Background(), "st", "example.myshopify.com")
	store := newFakeStore()
	admin := newFakeAdmin()
	admin.token = "shpat_abc"
	svc := newInstallService(store, states, admin, &fakeVerifier{})

	shop, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code", "st"))
	require.NoError(t, err)
	assert.Equal(t, "example.myshopify.com", shop)

	token, err := store.GetAccessToken(context.Background(), "example.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "shpat_abc", token)
}

func TestHandleCallbackReinstallReplacesToken(t *testing.T) {
	states := newFakeStates()
	store := newFakeStore()
	admin := newFakeAdmin()
	admin.token = "shpat_first"
	svc := newInstallService(store, states, admin, &fakeVerifier{})

	states.Save(context.Background(), "st1", "example.myshopify.com")
	_, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code1", "st1"))
	require.NoError(t, err)

	first, err := store.GetShop(context.Background(), "example.myshopify.com")
	require.NoError(t, err)

	// merchant reinstalls and the platform issues a new token
	admin.token = "shpat_second"
	states.Save(context.Background(), "st2", "example.myshopify.com")
	_, err = svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code2", "st2"))
	require.NoError(t, err)

	require.Len(t, store.shops, 1)
	second, err := store.GetShop(context.Background(), "example.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "shpat_second", second.AccessToken)
	assert.True(t, second.InstalledAt.Equal(first.InstalledAt))
}

func TestHandleCallbackStateIsOneShot(t *testing.T) {
	states := newFakeStates()
	states.Save(context.Background(), "st", "example.myshopify.com")
	svc := newInstallService(newFakeStore(), states, newFakeAdmin(), &fakeVerifier{})

	_, err := svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code", "st"))
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), callbackParams("example.myshopify.com", "code", "st"))
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}
