package ports

import (
	"context"
	"net/url"

	"trillion-shopify-app/internal/domain"
)

// ThemeFile is one named text file inside a storefront theme.
type ThemeFile struct {
	Filename string
	Body     string
}

// Page is an Online Store page.
type Page struct {
	ID     string
	Title  string
	Handle string
}

// MetafieldDefinition describes a product metafield definition to ensure.
type MetafieldDefinition struct {
	Namespace   string
	Key         string
	Name        string
	Type        string
	Description string
}

// AdminClient wraps the commerce platform's admin surface: the OAuth token
// endpoint, the versioned GraphQL endpoint, and the legacy REST endpoints
// still used for theme assets. Implementations perform no retries; transport
// failures, non-2xx statuses, and 2xx responses carrying errors or userErrors
// all surface as *domain.UpstreamError.
type AdminClient interface {
	// ExchangeToken trades an OAuth authorization code for an access token.
	ExchangeToken(ctx context.Context, shopDomain, code string) (string, error)

	// ActiveThemeID resolves the GID of the live (MAIN role) theme.
	ActiveThemeID(ctx context.Context, shopDomain, token string) (string, error)

	// ThemeFileContent fetches the text body of a named file in the live theme.
	ThemeFileContent(ctx context.Context, shopDomain, token, filename string) (string, error)

	// UpsertThemeFiles writes text files into a theme; re-running overwrites.
	UpsertThemeFiles(ctx context.Context, shopDomain, token, themeID string, files []ThemeFile) error

	// PutThemeAsset writes a theme asset through the legacy REST surface.
	PutThemeAsset(ctx context.Context, shopDomain, token string, themeID int64, key, value string) error

	// ActiveThemeRESTID resolves the numeric id of the live theme via REST.
	ActiveThemeRESTID(ctx context.Context, shopDomain, token string) (int64, error)

	// FindPageByHandle returns the page with the given handle, or (nil, nil)
	// when no such page exists.
	FindPageByHandle(ctx context.Context, shopDomain, token, handle string) (*Page, error)

	// CreatePage creates an Online Store page.
	CreatePage(ctx context.Context, shopDomain, token, title, handle, templateSuffix string) (*Page, error)

	// CreateMetafieldDefinition creates a product metafield definition.
	// Returns created=false with a nil error when the platform reports the
	// definition already exists.
	CreateMetafieldDefinition(ctx context.Context, shopDomain, token string, def MetafieldDefinition) (created bool, err error)

	// ListProducts pages through the shop's products, invoking fn once per
	// page with variant SKUs and the try-on flag populated. Iteration stops
	// on the first fn error.
	ListProducts(ctx context.Context, shopDomain, token string, fn func(products []domain.Product) error) error

	// SetProductFlag sets the boolean trillion.sku_exist metafield on a product.
	SetProductFlag(ctx context.Context, shopDomain, token, productID string, value bool) error

	// AttachProductModel stage-uploads the 3D model binary at modelURL and
	// attaches it to the product as MODEL_3D media.
	AttachProductModel(ctx context.Context, shopDomain, token, productID, sku, modelURL string) error
}

// CallbackVerifier validates the signed query string of an inbound OAuth
// callback against the shared app secret.
type CallbackVerifier interface {
	// Verify returns nil when the claimed signature matches, or a
	// *domain.AuthError on mismatch. It never panics.
	Verify(params url.Values) error
}
