package domain

import "time"

// ShopRecord is one installed shop: one row in the stores table.
type ShopRecord struct {
	ShopDomain   string    `json:"shop_domain"`
	AccessToken  string    `json:"-"`
	VendorAPIKey string    `json:"trillion_api_key,omitempty"` // empty until the merchant configures the try-on vendor
	InstalledAt  time.Time `json:"installed_at"`
}

// Product is the slice of a Shopify product the provisioning flow cares about:
// its variant SKUs and whether it already carries the trillion.sku_exist flag.
type Product struct {
	ID           string
	Title        string
	SKUs         []string
	TryOnFlagged bool
}

// FirstSKU returns the SKU of the first variant, or "" when the product has none.
// Media attachment keys model lookups off the first variant, matching the vendor's
// one-model-per-product convention.
func (p Product) FirstSKU() string {
	if len(p.SKUs) == 0 {
		return ""
	}
	return p.SKUs[0]
}
