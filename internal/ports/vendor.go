package ports

import "context"

// VendorClient talks to the try-on vendor's backend.
type VendorClient interface {
	// SKUList fetches the SKUs known to the vendor for the given API key.
	SKUList(ctx context.Context, apiKey string) ([]string, error)

	// ModelURL resolves the 3D model file URL for one SKU. A SKU the vendor
	// has no model for yields ("", nil); the caller skips it and continues.
	ModelURL(ctx context.Context, apiKey, shopDomain, sku string) (string, error)
}
