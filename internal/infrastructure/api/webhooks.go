package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// WebhookVerifier validates a webhook body against its signature header.
type WebhookVerifier interface {
	Verify(payload []byte, hmacHeader string) error
}

// Uninstaller removes a shop's stored credentials.
type Uninstaller interface {
	HandleUninstall(ctx context.Context, shopDomain string) error
}

// Webhook receives platform webhooks: POST /webhooks/shopify. Only
// app/uninstalled carries behavior; other subscribed topics are acknowledged
// so the platform does not retry them.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.webhooks.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
		h.logger.Warn().Err(err).Msg("webhook signature verification failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	topic := r.Header.Get("X-Shopify-Topic")
	shop := r.Header.Get("X-Shopify-Shop-Domain")
	if shop == "" {
		var body struct {
			Domain     string `json:"domain"`
			ShopDomain string `json:"shop_domain"`
		}
		if err := json.Unmarshal(payload, &body); err == nil {
			if body.Domain != "" {
				shop = body.Domain
			} else {
				shop = body.ShopDomain
			}
		}
	}

	if topic == "app/uninstalled" && shop != "" {
		if err := h.uninstaller.HandleUninstall(r.Context(), shop); err != nil {
			h.logger.Error().Str("shop", shop).Err(err).Msg("failed to process uninstall webhook")
			// 500 makes the platform redeliver
			http.Error(w, "failed to process webhook", http.StatusInternalServerError)
			return
		}
	} else {
		h.logger.Info().Str("topic", topic).Str("shop", shop).Msg("webhook acknowledged")
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
