package shopify

import (
	"context"
	"strconv"
	"strings"

	"trillion-shopify-app/internal/ports"
)

const metafieldDefinitionCreateMutation = `
mutation createDefinition($definition: MetafieldDefinitionInput!) {
  metafieldDefinitionCreate(definition: $definition) {
    createdDefinition {
      id
      namespace
      key
    }
    userErrors {
      field
      message
      code
    }
  }
}`

// CreateMetafieldDefinition creates a product metafield definition. The
// platform rejects duplicates with a TAKEN user error; that case returns
// created=false with a nil error so re-provisioning stays idempotent.
func (c *Client) CreateMetafieldDefinition(ctx context.Context, shopDomain, token string, def ports.MetafieldDefinition) (bool, error) {
	var data struct {
		MetafieldDefinitionCreate struct {
			CreatedDefinition struct {
				ID string `json:"id"`
			} `json:"createdDefinition"`
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldDefinitionCreate"`
	}

	variables := map[string]any{
		"definition": map[string]any{
			"namespace":   def.Namespace,
			"key":         def.Key,
			"name":        def.Name,
			"type":        def.Type,
			"description": def.Description,
			"ownerType":   "PRODUCT",
		},
	}
	if err := c.graphql(ctx, shopDomain, token, "create metafield definition", metafieldDefinitionCreateMutation, variables, &data); err != nil {
		return false, err
	}

	if errs := data.MetafieldDefinitionCreate.UserErrors; len(errs) > 0 {
		if definitionExists(errs) {
			c.logger.Debug().Str("shop", shopDomain).Str("key", def.Namespace+"."+def.Key).Msg("Metafield definition already exists")
			return false, nil
		}
		return false, userErrorsErr("create metafield definition", errs)
	}

	c.logger.Info().Str("shop", shopDomain).Str("key", def.Namespace+"."+def.Key).Msg("Metafield definition created")
	return true, nil
}

// definitionExists reports whether the userErrors describe a definition that
// is already in place rather than a real failure.
func definitionExists(errs []userError) bool {
	for _, e := range errs {
		if e.Code == "TAKEN" {
			return true
		}
		msg := strings.ToLower(e.Message)
		if strings.Contains(msg, "already exists") || strings.Contains(msg, "in use") {
			return true
		}
	}
	return false
}

const metafieldsSetMutation = `
mutation setMetafields($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
    }
    userErrors {
      field
      message
      code
    }
  }
}`

// SetProductFlag sets the boolean trillion.sku_exist metafield on a product.
// metafieldsSet is an upsert, so repeat runs overwrite.
func (c *Client) SetProductFlag(ctx context.Context, shopDomain, token, productID string, value bool) error {
	var data struct {
		MetafieldsSet struct {
			Metafields []struct {
				ID string `json:"id"`
			} `json:"metafields"`
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}

	variables := map[string]any{
		"metafields": []map[string]any{
			{
				"ownerId":   productID,
				"namespace": "trillion",
				"key":       "sku_exist",
				"type":      "boolean",
				"value":     strconv.FormatBool(value),
			},
		},
	}
	if err := c.graphql(ctx, shopDomain, token, "set product metafield", metafieldsSetMutation, variables, &data); err != nil {
		return err
	}
	return userErrorsErr("set product metafield", data.MetafieldsSet.UserErrors)
}
