package trillion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/infrastructure/metrics"
	"trillion-shopify-app/internal/ports"

	"github.com/rs/zerolog"
)

// Client talks to the Trillion vendor backend: the SKU catalogue and the
// per-SKU viewer configuration.
type Client struct {
	baseURL string
	httpc   *http.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewClient creates a vendor client. timeout bounds every call.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		metrics: m,
		logger:  logger,
	}
}

func (c *Client) observe(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.metrics.VendorRequestsTotal.WithLabelValues(op, outcome).Inc()
}

var _ ports.VendorClient = (*Client)(nil)

// SKUList fetches the SKUs known to the vendor for the given API key.
func (c *Client) SKUList(ctx context.Context, apiKey string) ([]string, error) {
	skus, err := c.skuList(ctx, apiKey)
	c.observe("sku_list", err)
	return skus, err
}

func (c *Client) skuList(ctx context.Context, apiKey string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/trillionwebapp/products/skus?apiKey=%s", c.baseURL, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sku list request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "fetch vendor skus", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "fetch vendor skus", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{Op: "fetch vendor skus", Status: resp.StatusCode, Payload: string(raw)}
	}

	var skus []string
	if err := json.Unmarshal(raw, &skus); err != nil {
		return nil, &domain.UpstreamError{Op: "fetch vendor skus", Status: resp.StatusCode, Payload: string(raw), Err: err}
	}
	return skus, nil
}

// ModelURL resolves the 3D model file URL for one SKU from the vendor's
// viewer configuration. A SKU without a model yields ("", nil).
func (c *Client) ModelURL(ctx context.Context, apiKey, shopDomain, sku string) (string, error) {
	modelURL, err := c.modelURL(ctx, apiKey, shopDomain, sku)
	c.observe("viewer_config", err)
	return modelURL, err
}

func (c *Client) modelURL(ctx context.Context, apiKey, shopDomain, sku string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/trillionwebapp/config/viewer/%s?key=%s",
		c.baseURL, url.PathEscape(sku), url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create viewer config request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://"+shopDomain)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Op: "fetch viewer config", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.UpstreamError{Op: "fetch viewer config", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.UpstreamError{Op: "fetch viewer config", Status: resp.StatusCode, Payload: string(raw)}
	}

	var cfg struct {
		ModelPath string `json:"modelPath"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return "", &domain.UpstreamError{Op: "fetch viewer config", Status: resp.StatusCode, Payload: string(raw), Err: err}
	}
	return cfg.ModelPath, nil
}
