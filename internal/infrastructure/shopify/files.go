package shopify

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"trillion-shopify-app/internal/domain"
)

const stagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const productSetMutation = `
mutation attachModel($productSet: ProductSetInput!) {
  productSet(synchronous: true, input: $productSet) {
    product {
      id
    }
    userErrors {
      code
      field
      message
    }
  }
}`

type stagedTarget struct {
	URL         string `json:"url"`
	ResourceURL string `json:"resourceUrl"`
	Parameters  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"parameters"`
}

// AttachProductModel stage-uploads the 3D model binary at modelURL into the
// platform's file subsystem and attaches it to the product as MODEL_3D media.
func (c *Client) AttachProductModel(ctx context.Context, shopDomain, token, productID, sku, modelURL string) error {
	filename := sku + ".glb"

	target, err := c.createStagedUpload(ctx, shopDomain, token, filename)
	if err != nil {
		return err
	}

	if err := c.uploadToStagedTarget(ctx, target, filename, modelURL); err != nil {
		return err
	}

	var data struct {
		ProductSet struct {
			Product struct {
				ID string `json:"id"`
			} `json:"product"`
			UserErrors []userError `json:"userErrors"`
		} `json:"productSet"`
	}

	variables := map[string]any{
		"productSet": map[string]any{
			"id": productID,
			"files": []map[string]any{
				{
					"contentType":    "MODEL_3D",
					"alt":            "3D Model",
					"originalSource": target.ResourceURL,
				},
			},
		},
	}
	if err := c.graphql(ctx, shopDomain, token, "attach product model", productSetMutation, variables, &data); err != nil {
		return err
	}
	if err := userErrorsErr("attach product model", data.ProductSet.UserErrors); err != nil {
		return err
	}

	c.logger.Info().Str("shop", shopDomain).Str("product", productID).Str("sku", sku).Msg("3D model attached")
	return nil
}

func (c *Client) createStagedUpload(ctx context.Context, shopDomain, token, filename string) (*stagedTarget, error) {
	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []stagedTarget `json:"stagedTargets"`
			UserErrors    []userError    `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}

	variables := map[string]any{
		"input": []map[string]any{
			{
				"filename":   filename,
				"mimeType":   "model/gltf-binary",
				"resource":   "MODEL_3D",
				"httpMethod": "POST",
			},
		},
	}
	if err := c.graphql(ctx, shopDomain, token, "create staged upload", stagedUploadsCreateMutation, variables, &data); err != nil {
		return nil, err
	}
	if err := userErrorsErr("create staged upload", data.StagedUploadsCreate.UserErrors); err != nil {
		return nil, err
	}
	if len(data.StagedUploadsCreate.StagedTargets) == 0 {
		return nil, &domain.UpstreamError{Op: "create staged upload", Status: http.StatusOK, Payload: "no staged target returned"}
	}
	return &data.StagedUploadsCreate.StagedTargets[0], nil
}

// uploadToStagedTarget streams the model body from its source URL into the
// signed staged target as a multipart POST, without buffering the file in
// memory.
func (c *Client) uploadToStagedTarget(ctx context.Context, target *stagedTarget, filename, modelURL string) error {
	srcReq, err := http.NewRequestWithContext(ctx, http.MethodGet, modelURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create model download request: %w", err)
	}
	srcResp, err := c.uploadc.Do(srcReq)
	if err != nil {
		return &domain.UpstreamError{Op: "download model", Err: err}
	}
	defer srcResp.Body.Close()
	if srcResp.StatusCode < 200 || srcResp.StatusCode >= 300 {
		return &domain.UpstreamError{Op: "download model", Status: srcResp.StatusCode, Payload: modelURL}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		var werr error
		defer func() { pw.CloseWithError(werr) }()
		for _, param := range target.Parameters {
			if werr = mw.WriteField(param.Name, param.Value); werr != nil {
				return
			}
		}
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			werr = err
			return
		}
		if _, werr = io.Copy(part, srcResp.Body); werr != nil {
			return
		}
		werr = mw.Close()
	}()

	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, pr)
	if err != nil {
		return fmt.Errorf("failed to create staged upload request: %w", err)
	}
	upReq.Header.Set("Content-Type", mw.FormDataContentType())

	upResp, err := c.uploadc.Do(upReq)
	if err != nil {
		return &domain.UpstreamError{Op: "staged upload", Err: err}
	}
	defer upResp.Body.Close()
	if upResp.StatusCode < 200 || upResp.StatusCode >= 300 {
		body, _ := io.ReadAll(upResp.Body)
		return &domain.UpstreamError{Op: "staged upload", Status: upResp.StatusCode, Payload: string(body)}
	}
	return nil
}
