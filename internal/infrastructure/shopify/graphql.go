package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trillion-shopify-app/internal/domain"
)

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// graphql posts one query to the versioned Admin GraphQL endpoint and decodes
// the data payload into out. Transport failure, a non-2xx status, and a 200
// carrying a top-level errors array are all reported as *domain.UpstreamError;
// the partial-success shape is checked explicitly, never inferred from the
// HTTP status alone.
func (c *Client) graphql(ctx context.Context, shopDomain, token, op, query string, variables map[string]any, out any) error {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, c.apiVersion)

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.UpstreamError{Op: op, Status: resp.StatusCode, Payload: string(raw)}
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &domain.UpstreamError{Op: op, Status: resp.StatusCode, Payload: string(raw), Err: err}
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			if e.Extensions.Code != "" {
				msgs = append(msgs, e.Message+" ("+e.Extensions.Code+")")
			} else {
				msgs = append(msgs, e.Message)
			}
		}
		return &domain.UpstreamError{Op: op, Status: resp.StatusCode, Payload: strings.Join(msgs, "; ")}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &domain.UpstreamError{Op: op, Status: resp.StatusCode, Payload: string(envelope.Data), Err: err}
		}
	}

	return nil
}

// userErrorsErr converts field-level userErrors into an UpstreamError, or nil
// when the slice is empty.
func userErrorsErr(op string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			msgs = append(msgs, strings.Join(e.Field, ".")+": "+e.Message)
		} else {
			msgs = append(msgs, e.Message)
		}
	}
	return &domain.UpstreamError{Op: op, Status: http.StatusOK, Payload: strings.Join(msgs, "; ")}
}
