package shopify

import (
	"context"

	"trillion-shopify-app/internal/ports"
)

const pageByHandleQuery = `
query pageByHandle($query: String!) {
  pages(first: 1, query: $query) {
    nodes {
      id
      title
      handle
    }
  }
}`

// FindPageByHandle returns the page with the given handle, or (nil, nil) when
// none exists. Page creation is not idempotent on the platform side, so the
// caller looks up by handle before creating.
func (c *Client) FindPageByHandle(ctx context.Context, shopDomain, token, handle string) (*ports.Page, error) {
	var data struct {
		Pages struct {
			Nodes []struct {
				ID     string `json:"id"`
				Title  string `json:"title"`
				Handle string `json:"handle"`
			} `json:"nodes"`
		} `json:"pages"`
	}

	variables := map[string]any{"query": "handle:" + handle}
	if err := c.graphql(ctx, shopDomain, token, "find page by handle", pageByHandleQuery, variables, &data); err != nil {
		return nil, err
	}

	for _, node := range data.Pages.Nodes {
		if node.Handle == handle {
			return &ports.Page{ID: node.ID, Title: node.Title, Handle: node.Handle}, nil
		}
	}
	return nil, nil
}

const pageCreateMutation = `
mutation createPage($page: PageCreateInput!) {
  pageCreate(page: $page) {
    page {
      id
      title
      handle
      templateSuffix
    }
    userErrors {
      field
      message
    }
  }
}`

// CreatePage creates an Online Store page.
func (c *Client) CreatePage(ctx context.Context, shopDomain, token, title, handle, templateSuffix string) (*ports.Page, error) {
	var data struct {
		PageCreate struct {
			Page struct {
				ID     string `json:"id"`
				Title  string `json:"title"`
				Handle string `json:"handle"`
			} `json:"page"`
			UserErrors []userError `json:"userErrors"`
		} `json:"pageCreate"`
	}

	variables := map[string]any{
		"page": map[string]any{
			"title":          title,
			"handle":         handle,
			"templateSuffix": templateSuffix,
		},
	}
	if err := c.graphql(ctx, shopDomain, token, "create page", pageCreateMutation, variables, &data); err != nil {
		return nil, err
	}
	if err := userErrorsErr("create page", data.PageCreate.UserErrors); err != nil {
		return nil, err
	}

	c.logger.Info().Str("shop", shopDomain).Str("handle", handle).Msg("Page created")
	return &ports.Page{
		ID:     data.PageCreate.Page.ID,
		Title:  data.PageCreate.Page.Title,
		Handle: data.PageCreate.Page.Handle,
	}, nil
}
