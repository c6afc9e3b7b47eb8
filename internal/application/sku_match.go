package application

import "trillion-shopify-app/internal/domain"

// MatchBySKU returns the products that share at least one variant SKU with the
// vendor's catalog. Comparison is exact; an empty vendor list matches nothing.
func MatchBySKU(products []domain.Product, vendorSKUs []string) []domain.Product {
	if len(products) == 0 || len(vendorSKUs) == 0 {
		return nil
	}

	known := make(map[string]struct{}, len(vendorSKUs))
	for _, sku := range vendorSKUs {
		if sku != "" {
			known[sku] = struct{}{}
		}
	}

	var matched []domain.Product
	for _, p := range products {
		for _, sku := range p.SKUs {
			if _, ok := known[sku]; ok {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}
