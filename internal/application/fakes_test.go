package application

import (
	"context"
	"net/url"
	"sync"
	"time"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/ports"
)

type fakeStore struct {
	mu    sync.Mutex
	shops map[string]*domain.ShopRecord
}

func newFakeStore(shops ...*domain.ShopRecord) *fakeStore {
	s := &fakeStore{shops: make(map[string]*domain.ShopRecord)}
	for _, shop := range shops {
		s.shops[shop.ShopDomain] = shop
	}
	return s
}

func (s *fakeStore) UpsertShop(_ context.Context, shopDomain, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.shops[shopDomain]; ok {
		existing.AccessToken = accessToken
		return nil
	}
	s.shops[shopDomain] = &domain.ShopRecord{
		ShopDomain:  shopDomain,
		AccessToken: accessToken,
		InstalledAt: time.Now(),
	}
	return nil
}

func (s *fakeStore) GetAccessToken(_ context.Context, shopDomain string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[shopDomain]
	if !ok {
		return "", &domain.NotFoundError{Msg: "shop not installed: " + shopDomain}
	}
	return shop.AccessToken, nil
}

func (s *fakeStore) GetVendorAPIKey(_ context.Context, shopDomain string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[shopDomain]
	if !ok {
		return "", &domain.NotFoundError{Msg: "shop not installed: " + shopDomain}
	}
	return shop.VendorAPIKey, nil
}

func (s *fakeStore) SetVendorAPIKey(_ context.Context, shopDomain, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[shopDomain]
	if !ok {
		return &domain.NotFoundError{Msg: "shop not installed: " + shopDomain}
	}
	shop.VendorAPIKey = key
	return nil
}

func (s *fakeStore) DeleteShop(_ context.Context, shopDomain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shops, shopDomain)
	return nil
}

func (s *fakeStore) FirstShopDomain(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first *domain.ShopRecord
	for _, shop := range s.shops {
		if first == nil || shop.InstalledAt.Before(first.InstalledAt) {
			first = shop
		}
	}
	if first == nil {
		return "", &domain.NotFoundError{Msg: "no shops installed"}
	}
	return first.ShopDomain, nil
}

func (s *fakeStore) GetShop(_ context.Context, shopDomain string) (*domain.ShopRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.shops[shopDomain]
	if !ok {
		return nil, &domain.NotFoundError{Msg: "shop not installed: " + shopDomain}
	}
	copied := *shop
	return &copied, nil
}

type fakeStates struct {
	mu     sync.Mutex
	states map[string]string
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: make(map[string]string)}
}

func (f *fakeStates) Save(_ context.Context, state, shopDomain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state] = shopDomain
	return nil
}

func (f *fakeStates) Consume(_ context.Context, state string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shop, ok := f.states[state]
	if !ok {
		return "", &domain.AuthError{Msg: "unknown or expired oauth state"}
	}
	delete(f.states, state)
	return shop, nil
}

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) Verify(url.Values) error { return f.err }

// fakeAdmin records every call in order and fails the method named by failOn.
type fakeAdmin struct {
	mu    sync.Mutex
	calls []string

	failOn string

	themeID         string
	restThemeID     int64
	layout          string
	upserted        map[string]string
	assets          map[string]string
	page            *ports.Page
	createdPages    []ports.Page
	metafieldExists bool
	productPages    [][]domain.Product
	flagged         map[string]bool
	flagErrFor      map[string]error
	attached        map[string]string
	attachErrFor    map[string]error
	token           string
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		themeID:     "gid://shopify/OnlineStoreTheme/42",
		restThemeID: 42,
		layout:      "<html><body>{{ content_for_layout }}</body></html>",
		upserted:    make(map[string]string),
		assets:      make(map[string]string),
		flagged:     make(map[string]bool),
		flagErrFor:  make(map[string]error),
		attached:    make(map[string]string),
		attachErrFor: make(map[string]error),
		token:       "token-1",
	}
}

func (a *fakeAdmin) record(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, name)
	if a.failOn == name {
		return &domain.UpstreamError{Op: name, Status: 500, Payload: "boom"}
	}
	return nil
}

func (a *fakeAdmin) callCount(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (a *fakeAdmin) ExchangeToken(_ context.Context, _, _ string) (string, error) {
	if err := a.record("ExchangeToken"); err != nil {
		return "", err
	}
	return a.token, nil
}

func (a *fakeAdmin) ActiveThemeID(_ context.Context, _, _ string) (string, error) {
	if err := a.record("ActiveThemeID"); err != nil {
		return "", err
	}
	return a.themeID, nil
}

func (a *fakeAdmin) ThemeFileContent(_ context.Context, _, _, _ string) (string, error) {
	if err := a.record("ThemeFileContent"); err != nil {
		return "", err
	}
	return a.layout, nil
}

func (a *fakeAdmin) UpsertThemeFiles(_ context.Context, _, _, _ string, files []ports.ThemeFile) error {
	if err := a.record("UpsertThemeFiles"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, f := range files {
		a.upserted[f.Filename] = f.Body
	}
	return nil
}

func (a *fakeAdmin) PutThemeAsset(_ context.Context, _, _ string, _ int64, key, value string) error {
	if err := a.record("PutThemeAsset"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assets[key] = value
	return nil
}

func (a *fakeAdmin) ActiveThemeRESTID(_ context.Context, _, _ string) (int64, error) {
	if err := a.record("ActiveThemeRESTID"); err != nil {
		return 0, err
	}
	return a.restThemeID, nil
}

func (a *fakeAdmin) FindPageByHandle(_ context.Context, _, _, _ string) (*ports.Page, error) {
	if err := a.record("FindPageByHandle"); err != nil {
		return nil, err
	}
	return a.page, nil
}

func (a *fakeAdmin) CreatePage(_ context.Context, _, _, title, handle, templateSuffix string) (*ports.Page, error) {
	if err := a.record("CreatePage"); err != nil {
		return nil, err
	}
	page := ports.Page{ID: "gid://shopify/Page/1", Title: title, Handle: handle}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.createdPages = append(a.createdPages, page)
	return &page, nil
}

func (a *fakeAdmin) CreateMetafieldDefinition(_ context.Context, _, _ string, _ ports.MetafieldDefinition) (bool, error) {
	if err := a.record("CreateMetafieldDefinition"); err != nil {
		return false, err
	}
	return !a.metafieldExists, nil
}

func (a *fakeAdmin) ListProducts(_ context.Context, _, _ string, fn func([]domain.Product) error) error {
	if err := a.record("ListProducts"); err != nil {
		return err
	}
	for _, page := range a.productPages {
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

func (a *fakeAdmin) SetProductFlag(_ context.Context, _, _, productID string, value bool) error {
	if err := a.record("SetProductFlag"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.flagErrFor[productID]; err != nil {
		return err
	}
	a.flagged[productID] = value
	return nil
}

func (a *fakeAdmin) AttachProductModel(_ context.Context, _, _, productID, _, modelURL string) error {
	if err := a.record("AttachProductModel"); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.attachErrFor[productID]; err != nil {
		return err
	}
	a.attached[productID] = modelURL
	return nil
}

type fakeVendor struct {
	skus   []string
	skuErr error
	models map[string]string
}

func (v *fakeVendor) SKUList(context.Context, string) ([]string, error) {
	if v.skuErr != nil {
		return nil, v.skuErr
	}
	return v.skus, nil
}

func (v *fakeVendor) ModelURL(_ context.Context, _, _, sku string) (string, error) {
	return v.models[sku], nil
}
