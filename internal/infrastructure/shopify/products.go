package shopify

import (
	"context"

	"trillion-shopify-app/internal/domain"
)

const productsPageQuery = `
query products($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    edges {
      node {
        id
        title
        variants(first: 100) {
          edges {
            node {
              sku
            }
          }
        }
        metafield(namespace: "trillion", key: "sku_exist") {
          value
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const productsPageSize = 250

type productsPage struct {
	Products struct {
		Edges []struct {
			Node struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				Variants struct {
					Edges []struct {
						Node struct {
							SKU string `json:"sku"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
				Metafield *struct {
					Value string `json:"value"`
				} `json:"metafield"`
			} `json:"node"`
		} `json:"edges"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"products"`
}

// ListProducts pages through the shop's products with cursor pagination,
// invoking fn once per page. Iteration stops on the first fn error.
func (c *Client) ListProducts(ctx context.Context, shopDomain, token string, fn func(products []domain.Product) error) error {
	var after *string
	for {
		variables := map[string]any{
			"first": productsPageSize,
			"after": after,
		}

		var data productsPage
		if err := c.graphql(ctx, shopDomain, token, "list products", productsPageQuery, variables, &data); err != nil {
			return err
		}

		products := make([]domain.Product, 0, len(data.Products.Edges))
		for _, edge := range data.Products.Edges {
			node := edge.Node
			skus := make([]string, 0, len(node.Variants.Edges))
			for _, v := range node.Variants.Edges {
				if v.Node.SKU != "" {
					skus = append(skus, v.Node.SKU)
				}
			}
			products = append(products, domain.Product{
				ID:           node.ID,
				Title:        node.Title,
				SKUs:         skus,
				TryOnFlagged: node.Metafield != nil && node.Metafield.Value == "true",
			})
		}

		if len(products) > 0 {
			if err := fn(products); err != nil {
				return err
			}
		}

		if !data.Products.PageInfo.HasNextPage {
			return nil
		}
		cursor := data.Products.PageInfo.EndCursor
		after = &cursor
	}
}
