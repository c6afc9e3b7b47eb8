package trillion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"trillion-shopify-app/internal/domain"
	"trillion-shopify-app/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	m := metrics.New(prometheus.NewRegistry())
	return NewClient(baseURL, 5*time.Second, m, zerolog.New(os.Stderr))
}

func TestSKUListFetchesCatalog(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apiKey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["RING-1","RING-2"]`))
	}))
	defer srv.Close()

	skus, err := newTestClient(srv.URL).SKUList(context.Background(), "vendor-key")
	require.NoError(t, err)

	assert.Equal(t, []string{"RING-1", "RING-2"}, skus)
	assert.Equal(t, "/trillionwebapp/products/skus", gotPath)
	assert.Equal(t, "vendor-key", gotKey)
}

func TestSKUListRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SKUList(context.Background(), "bad-key")
	require.Error(t, err)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
	assert.False(t, upstream.UserFacing())
}

func TestModelURLSendsShopReferer(t *testing.T) {
	var gotReferer, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"modelPath":"https://cdn.trillion.jewelry/models/RING-1.glb"}`))
	}))
	defer srv.Close()

	modelURL, err := newTestClient(srv.URL).ModelURL(context.Background(), "vendor-key", "example.myshopify.com", "RING-1")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.trillion.jewelry/models/RING-1.glb", modelURL)
	assert.Equal(t, "https://example.myshopify.com", gotReferer)
	assert.Equal(t, "/api/trillionwebapp/config/viewer/RING-1", gotPath)
}

func TestModelURLMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	modelURL, err := newTestClient(srv.URL).ModelURL(context.Background(), "vendor-key", "example.myshopify.com", "UNKNOWN")
	require.NoError(t, err)
	assert.Empty(t, modelURL)
}
