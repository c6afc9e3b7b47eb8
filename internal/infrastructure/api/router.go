package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter assembles the chi router: standard middleware, the OAuth routes,
// the admin REST API, and the operational endpoints.
func NewRouter(h *Handlers, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	r.Get("/install", h.Install)
	r.Get("/auth/callback", h.AuthCallback)
	r.Post("/webhooks/shopify", h.Webhook)

	r.Route("/api", func(r chi.Router) {
		r.Get("/shop", h.GetShop)
		r.Get("/key", h.GetKey)
		r.Post("/key", h.SetKey)
		r.Delete("/key", h.DeleteKey)

		r.Route("/provision", func(r chi.Router) {
			r.Post("/template", h.provisionStep(h.provisioning.UploadTemplate))
			r.Post("/metafield-definition", h.provisionStep(h.provisioning.EnsureMetafieldDefinition))
			r.Post("/viewer-asset", h.provisionStep(h.provisioning.UploadViewerAsset))
			r.Post("/viewer-snippet", h.provisionStep(h.provisioning.UploadViewerSnippet))
			r.Post("/theme-patch", h.provisionStep(h.provisioning.PatchThemeLayout))
			r.Post("/page", h.provisionStep(h.provisioning.EnsurePage))
			r.Post("/import-skus", h.batchOperation(h.provisioning.ImportSKUs))
			r.Post("/media", h.batchOperation(h.provisioning.AttachMedia))
		})
	})

	return r
}
