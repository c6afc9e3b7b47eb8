package shopify

import (
	"context"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/ports"
)

const themesQuery = `
query {
  themes(first: 10) {
    edges {
      node {
        id
        name
        role
      }
    }
  }
}`

// ActiveThemeID resolves the GID of the theme whose role marks it as live.
func (c *Client) ActiveThemeID(ctx context.Context, shopDomain, token string) (string, error) {
	var data struct {
		Themes struct {
			Edges []struct {
				Node struct {
					ID   string `json:"id"`
					Name string `json:"name"`
					Role string `json:"role"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"themes"`
	}

	if err := c.graphql(ctx, shopDomain, token, "fetch themes", themesQuery, nil, &data); err != nil {
		return "", err
	}

	for _, edge := range data.Themes.Edges {
		if edge.Node.Role == "MAIN" {
			return edge.Node.ID, nil
		}
	}
	return "", &domain.NotFoundError{Msg: "no active theme found"}
}

const themeFileQuery = `
query themeFile($filenames: [String!]) {
  themes(roles: [MAIN], first: 1) {
    nodes {
      files(filenames: $filenames, first: 1) {
        nodes {
          filename
          body {
            ... on OnlineStoreThemeFileBodyText {
              content
            }
          }
        }
      }
    }
  }
}`

// ThemeFileContent fetches the text body of one file in the live theme.
func (c *Client) ThemeFileContent(ctx context.Context, shopDomain, token, filename string) (string, error) {
	var data struct {
		Themes struct {
			Nodes []struct {
				Files struct {
					Nodes []struct {
						Filename string `json:"filename"`
						Body     struct {
							Content string `json:"content"`
						} `json:"body"`
					} `json:"nodes"`
				} `json:"files"`
			} `json:"nodes"`
		} `json:"themes"`
	}

	variables := map[string]any{"filenames": []string{filename}}
	if err := c.graphql(ctx, shopDomain, token, "fetch theme file "+filename, themeFileQuery, variables, &data); err != nil {
		return "", err
	}

	for _, theme := range data.Themes.Nodes {
		for _, file := range theme.Files.Nodes {
			if file.Filename == filename {
				return file.Body.Content, nil
			}
		}
	}
	return "", &domain.NotFoundError{Msg: "theme file not found: " + filename}
}

const themeFilesUpsertMutation = `
mutation themeFilesUpsert($files: [OnlineStoreThemeFilesUpsertFileInput!]!, $themeId: ID!) {
  themeFilesUpsert(files: $files, themeId: $themeId) {
    upsertedThemeFiles {
      filename
    }
    userErrors {
      field
      message
    }
  }
}`

// UpsertThemeFiles writes text files into the theme; re-running overwrites.
func (c *Client) UpsertThemeFiles(ctx context.Context, shopDomain, token, themeID string, files []ports.ThemeFile) error {
	inputs := make([]map[string]any, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, map[string]any{
			"filename": f.Filename,
			"body": map[string]any{
				"type":  "TEXT",
				"value": f.Body,
			},
		})
	}

	var data struct {
		ThemeFilesUpsert struct {
			UpsertedThemeFiles []struct {
				Filename string `json:"filename"`
			} `json:"upsertedThemeFiles"`
			UserErrors []userError `json:"userErrors"`
		} `json:"themeFilesUpsert"`
	}

	variables := map[string]any{"files": inputs, "themeId": themeID}
	if err := c.graphql(ctx, shopDomain, token, "upsert theme files", themeFilesUpsertMutation, variables, &data); err != nil {
		return err
	}
	return userErrorsErr("upsert theme files", data.ThemeFilesUpsert.UserErrors)
}
