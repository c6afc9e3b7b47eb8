package ports

import (
	"context"

	"trillion-shopify-app/internal/domain"
)

// ShopStore persists per-shop credentials: one row per shop domain.
type ShopStore interface {
	// UpsertShop creates the shop row or replaces its access token. The
	// installed_at timestamp is written once on first install and never
	// updated on reinstall.
	UpsertShop(ctx context.Context, shopDomain, accessToken string) error

	// GetAccessToken returns the platform access token for a shop, or a
	// *domain.NotFoundError when the shop is not installed.
	GetAccessToken(ctx context.Context, shopDomain string) (string, error)

	// GetVendorAPIKey returns the try-on vendor key for a shop. An installed
	// shop with no key configured yields ("", nil); a missing shop row yields
	// a *domain.NotFoundError. Lookup failures are *domain.StoreError, never
	// conflated with absence.
	GetVendorAPIKey(ctx context.Context, shopDomain string) (string, error)

	// SetVendorAPIKey stores the vendor key, or clears it when key is empty.
	// Clearing an already-absent key succeeds.
	SetVendorAPIKey(ctx context.Context, shopDomain, key string) error

	// DeleteShop removes the shop row and all its credentials, used when the
	// app is uninstalled. Deleting an unknown shop succeeds.
	DeleteShop(ctx context.Context, shopDomain string) error

	// FirstShopDomain returns the earliest-installed shop domain, used by the
	// single-tenant admin page to discover which shop it is managing.
	FirstShopDomain(ctx context.Context) (string, error)

	// GetShop returns the full record for a shop.
	GetShop(ctx context.Context, shopDomain string) (*domain.ShopRecord, error)
}

// StateStore holds short-lived OAuth state nonces for CSRF protection.
type StateStore interface {
	// Save associates a state nonce with the shop that initiated the install.
	Save(ctx context.Context, state, shopDomain string) error

	// Consume returns the shop for a nonce and deletes it, so each nonce
	// validates at most once. Unknown or expired nonces yield a
	// *domain.AuthError.
	Consume(ctx context.Context, state string) (string, error)
}
