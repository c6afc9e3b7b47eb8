package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"trillion-shopify-app/internal/domain"

	"github.com/rs/zerolog"
)

// InstallFlow drives the OAuth install flow.
type InstallFlow interface {
	AuthorizeURL(ctx context.Context, shop string) (string, error)
	HandleCallback(ctx context.Context, params url.Values) (string, error)
}

// CredentialsAPI exposes shop credential lookups and vendor key removal.
type CredentialsAPI interface {
	ResolveShop(ctx context.Context, shopDomain string) (string, error)
	Shop(ctx context.Context, shopDomain string) (*domain.ShopRecord, error)
	VendorKeyStatus(ctx context.Context, shopDomain string) (key string, configured bool, err error)
	DeleteVendorKey(ctx context.Context, shopDomain string) error
}

// Provisioner exposes the provisioning orchestration and its individual
// steps. The per-step apiKey may be empty, meaning the stored vendor key.
type Provisioner interface {
	Configure(ctx context.Context, shopDomain, apiKey string) (*domain.ProvisionReport, error)
	UploadTemplate(ctx context.Context, shopDomain, apiKey string) error
	EnsureMetafieldDefinition(ctx context.Context, shopDomain, apiKey string) error
	UploadViewerAsset(ctx context.Context, shopDomain, apiKey string) error
	UploadViewerSnippet(ctx context.Context, shopDomain, apiKey string) error
	PatchThemeLayout(ctx context.Context, shopDomain, apiKey string) error
	EnsurePage(ctx context.Context, shopDomain, apiKey string) error
	ImportSKUs(ctx context.Context, shopDomain, apiKey string) (*domain.BatchSummary, error)
	AttachMedia(ctx context.Context, shopDomain, apiKey string) (*domain.BatchSummary, error)
}

// Handlers holds the HTTP handlers for the app's REST surface.
type Handlers struct {
	installs     InstallFlow
	credentials  CredentialsAPI
	provisioning Provisioner
	webhooks     WebhookVerifier
	uninstaller  Uninstaller
	logger       zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(installs InstallFlow, credentials CredentialsAPI, provisioning Provisioner, webhooks WebhookVerifier, uninstaller Uninstaller, logger zerolog.Logger) *Handlers {
	return &Handlers{
		installs:     installs,
		credentials:  credentials,
		provisioning: provisioning,
		webhooks:     webhooks,
		uninstaller:  uninstaller,
		logger:       logger,
	}
}

// Install starts the OAuth flow: GET /install?shop={shop}.
func (h *Handlers) Install(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.installs.AuthorizeURL(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// AuthCallback completes the OAuth flow: GET /auth/callback.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	shop, err := h.installs.HandleCallback(r.Context(), r.URL.Query())
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, "https://"+shop+"/admin/apps", http.StatusFound)
}

// GetShop returns the stored record for a shop: GET /api/shop.
func (h *Handlers) GetShop(w http.ResponseWriter, r *http.Request) {
	record, err := h.credentials.Shop(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// GetKey reports whether a vendor key is configured: GET /api/key.
func (h *Handlers) GetKey(w http.ResponseWriter, r *http.Request) {
	key, configured, err := h.credentials.VendorKeyStatus(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := map[string]any{"configured": configured}
	if configured {
		resp["key"] = key
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// SetKey stores a vendor key by running the full provisioning sequence:
// POST /api/key with body {"key": "..."}.
func (h *Handlers) SetKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Shop string `json:"shop"`
		Key  string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.NewValidationError("invalid json body"))
		return
	}
	if body.Key == "" {
		h.writeError(w, domain.NewValidationError("missing key"))
		return
	}

	shop, err := h.credentials.ResolveShop(r.Context(), body.Shop)
	if err != nil {
		h.writeError(w, err)
		return
	}

	report, err := h.provisioning.Configure(r.Context(), shop, body.Key)
	if err != nil {
		h.writeProvisionError(w, err, report)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// DeleteKey removes the vendor key: DELETE /api/key.
func (h *Handlers) DeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.DeleteVendorKey(r.Context(), r.URL.Query().Get("shop")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// stepRequest is the optional body for the per-step and batch routes. An
// explicit apiKey overrides the stored vendor key, so a step can be retried
// on its own after a partial configure that never persisted one.
type stepRequest struct {
	Shop   string `json:"shop"`
	APIKey string `json:"apiKey"`
}

func (h *Handlers) decodeStepRequest(r *http.Request) (stepRequest, error) {
	var body stepRequest
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		body.Shop = r.URL.Query().Get("shop")
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, domain.NewValidationError("invalid json body")
	}
	if body.Shop == "" {
		body.Shop = r.URL.Query().Get("shop")
	}
	return body, nil
}

// provisionStep adapts one provisioning step into an HTTP handler.
func (h *Handlers) provisionStep(fn func(ctx context.Context, shop, apiKey string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := h.decodeStepRequest(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		shop, err := h.credentials.ResolveShop(r.Context(), body.Shop)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if err := fn(r.Context(), shop, body.APIKey); err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// batchOperation adapts SKU import or media attachment into an HTTP handler.
func (h *Handlers) batchOperation(fn func(ctx context.Context, shop, apiKey string) (*domain.BatchSummary, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := h.decodeStepRequest(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		shop, err := h.credentials.ResolveShop(r.Context(), body.Shop)
		if err != nil {
			h.writeError(w, err)
			return
		}
		summary, err := fn(r.Context(), shop, body.APIKey)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, summary)
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handlers) writeProvisionError(w http.ResponseWriter, err error, report *domain.ProvisionReport) {
	status, msg := h.classify(err)
	resp := map[string]any{"error": msg}
	if report != nil && report.Failed != "" {
		resp["failed_step"] = report.Failed
		resp["completed"] = report.Completed
	}
	h.writeJSON(w, status, resp)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status, msg := h.classify(err)
	h.writeJSON(w, status, map[string]any{"error": msg})
}

// classify maps the error taxonomy onto HTTP statuses. Upstream rejections the
// platform reported at the application level map to 400; transport and server
// failures to 502. Internal failures never leak details to the caller.
func (h *Handlers) classify(err error) (int, string) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		notFoundErr   *domain.NotFoundError
		upstreamErr   *domain.UpstreamError
		storeErr      *domain.StoreError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Msg
	case errors.As(err, &authErr):
		return http.StatusForbidden, authErr.Msg
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, notFoundErr.Msg
	case errors.As(err, &upstreamErr):
		if upstreamErr.UserFacing() {
			return http.StatusBadRequest, err.Error()
		}
		h.logger.Error().Err(err).Msg("upstream call failed")
		return http.StatusBadGateway, "upstream service unavailable"
	case errors.As(err, &storeErr):
		h.logger.Error().Err(err).Msg("store operation failed")
		return http.StatusInternalServerError, "internal error"
	default:
		h.logger.Error().Err(err).Msg("unhandled error")
		return http.StatusInternalServerError, "internal error"
	}
}
