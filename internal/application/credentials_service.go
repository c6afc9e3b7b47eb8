package application

import (
	"context"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/ports"

	"github.com/rs/zerolog"
)

// CredentialsService handles shop credential lookups and the try-on vendor
// key lifecycle. Persisting a new key happens through the provisioning
// service, which writes it only after the shop is fully configured.
type CredentialsService struct {
	store  ports.ShopStore
	logger zerolog.Logger
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(store ports.ShopStore, logger zerolog.Logger) *CredentialsService {
	return &CredentialsService{store: store, logger: logger}
}

// ResolveShop returns the shop domain to operate on. An explicit domain is
// validated and passed through; an empty one falls back to the
// earliest-installed shop, which is how the embedded admin page discovers its
// shop.
func (s *CredentialsService) ResolveShop(ctx context.Context, shopDomain string) (string, error) {
	if shopDomain != "" {
		if !ValidShopDomain(shopDomain) {
			return "", domain.NewValidationError("invalid shop domain %q", shopDomain)
		}
		return shopDomain, nil
	}
	return s.store.FirstShopDomain(ctx)
}

// Shop returns the stored record for a shop.
func (s *CredentialsService) Shop(ctx context.Context, shopDomain string) (*domain.ShopRecord, error) {
	resolved, err := s.ResolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	return s.store.GetShop(ctx, resolved)
}

// VendorKeyStatus reports whether a vendor key is configured for the shop and
// returns it when present.
func (s *CredentialsService) VendorKeyStatus(ctx context.Context, shopDomain string) (key string, configured bool, err error) {
	resolved, err := s.ResolveShop(ctx, shopDomain)
	if err != nil {
		return "", false, err
	}
	key, err = s.store.GetVendorAPIKey(ctx, resolved)
	if err != nil {
		return "", false, err
	}
	return key, key != "", nil
}

// DeleteVendorKey clears the vendor key. Deleting an absent key succeeds, so
// the operation is idempotent.
func (s *CredentialsService) DeleteVendorKey(ctx context.Context, shopDomain string) error {
	resolved, err := s.ResolveShop(ctx, shopDomain)
	if err != nil {
		return err
	}
	if err := s.store.SetVendorAPIKey(ctx, resolved, ""); err != nil {
		return err
	}
	s.logger.Info().Str("shop", resolved).Msg("vendor api key removed")
	return nil
}

// HandleUninstall drops the shop's credentials after an app/uninstalled
// webhook. The access token is already revoked by the platform at this point,
// so the row is just dead weight. Idempotent, since webhooks are delivered at
// least once.
func (s *CredentialsService) HandleUninstall(ctx context.Context, shopDomain string) error {
	if err := s.store.DeleteShop(ctx, shopDomain); err != nil {
		return err
	}
	s.logger.Info().Str("shop", shopDomain).Msg("shop uninstalled")
	return nil
}
