package repository

import (
	"context"
	"database/sql"
	"errors"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/ports"

	"github.com/rs/zerolog"
)

// PostgresStore implements ports.ShopStore on the stores table: one row per
// shop, keyed by shop_domain. All operations are single-row point queries.
type PostgresStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresStore creates a Postgres-backed shop store.
func NewPostgresStore(db *sql.DB, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

var _ ports.ShopStore = (*PostgresStore)(nil)

// UpsertShop creates the shop row or replaces its access token. installed_at
// is written on first insert only, so the record's identity survives a
// reinstall.
func (s *PostgresStore) UpsertShop(ctx context.Context, shopDomain, accessToken string) error {
	query := `
		INSERT INTO stores (shop_domain, access_token, installed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (shop_domain) DO UPDATE SET access_token = EXCLUDED.access_token`

	if _, err := s.db.ExecContext(ctx, query, shopDomain, accessToken); err != nil {
		return &domain.StoreError{Op: "upsert shop", Err: err}
	}
	return nil
}

// GetAccessToken returns the platform access token for a shop.
func (s *PostgresStore) GetAccessToken(ctx context.Context, shopDomain string) (string, error) {
	var token string
	query := `SELECT access_token FROM stores WHERE shop_domain = $1`
	err := s.db.QueryRowContext(ctx, query, shopDomain).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &domain.NotFoundError{Msg: "access token not found for shop"}
	}
	if err != nil {
		return "", &domain.StoreError{Op: "get access token", Err: err}
	}
	return token, nil
}

// GetVendorAPIKey returns the vendor key for a shop. A NULL column is the
// valid not-yet-configured state and yields ("", nil); only a missing row is
// NotFound.
func (s *PostgresStore) GetVendorAPIKey(ctx context.Context, shopDomain string) (string, error) {
	var key sql.NullString
	query := `SELECT trillion_api_key FROM stores WHERE shop_domain = $1`
	err := s.db.QueryRowContext(ctx, query, shopDomain).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &domain.NotFoundError{Msg: "shop not found"}
	}
	if err != nil {
		return "", &domain.StoreError{Op: "get vendor api key", Err: err}
	}
	return key.String, nil
}

// SetVendorAPIKey stores the vendor key, or clears it when key is empty.
// Clearing an already-absent key succeeds.
func (s *PostgresStore) SetVendorAPIKey(ctx context.Context, shopDomain, key string) error {
	query := `UPDATE stores SET trillion_api_key = NULLIF($2, '') WHERE shop_domain = $1`
	res, err := s.db.ExecContext(ctx, query, shopDomain, key)
	if err != nil {
		return &domain.StoreError{Op: "set vendor api key", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "set vendor api key", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{Msg: "shop not found"}
	}
	return nil
}

// DeleteShop removes the shop row. Deleting an unknown shop succeeds.
func (s *PostgresStore) DeleteShop(ctx context.Context, shopDomain string) error {
	query := `DELETE FROM stores WHERE shop_domain = $1`
	if _, err := s.db.ExecContext(ctx, query, shopDomain); err != nil {
		return &domain.StoreError{Op: "delete shop", Err: err}
	}
	s.logger.Info().Str("shop", shopDomain).Msg("shop record deleted")
	return nil
}

// FirstShopDomain returns the earliest-installed shop domain.
func (s *PostgresStore) FirstShopDomain(ctx context.Context) (string, error) {
	var shopDomain string
	query := `SELECT shop_domain FROM stores ORDER BY installed_at LIMIT 1`
	err := s.db.QueryRowContext(ctx, query).Scan(&shopDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &domain.NotFoundError{Msg: "no shop installed"}
	}
	if err != nil {
		return "", &domain.StoreError{Op: "first shop domain", Err: err}
	}
	return shopDomain, nil
}

// GetShop returns the full record for a shop.
func (s *PostgresStore) GetShop(ctx context.Context, shopDomain string) (*domain.ShopRecord, error) {
	var rec domain.ShopRecord
	var key sql.NullString
	query := `SELECT shop_domain, access_token, trillion_api_key, installed_at FROM stores WHERE shop_domain = $1`
	err := s.db.QueryRowContext(ctx, query, shopDomain).Scan(&rec.ShopDomain, &rec.AccessToken, &key, &rec.InstalledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Msg: "shop not found"}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get shop", Err: err}
	}
	rec.VendorAPIKey = key.String
	return &rec, nil
}
