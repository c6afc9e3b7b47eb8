package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"trillion-shopify-app/internal/application"
	"trillion-shopify-app/internal/config"
	"trillion-shopify-app/internal/infrastructure/api"
	"trillion-shopify-app/internal/infrastructure/metrics"
	"trillion-shopify-app/internal/infrastructure/repository"
	shopifyinfra "trillion-shopify-app/internal/infrastructure/shopify"
	"trillion-shopify-app/internal/infrastructure/trillion"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to reach database")
	}
	cancel()

	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store := repository.NewPostgresStore(db, logger)
	states := repository.NewRedisStateStore(rdb, cfg.OAuthStateTTL)

	adminClient := shopifyinfra.NewClient(
		cfg.ShopifyAPIKey,
		cfg.ShopifyAPISecret,
		cfg.ShopifyAPIVersion,
		cfg.OutboundTimeout,
		cfg.UploadTimeout,
		logger,
	)
	verifier := shopifyinfra.NewVerifier(cfg.ShopifyAPISecret)
	webhookVerifier := shopifyinfra.NewWebhookVerifier(cfg.ShopifyAPISecret)
	vendorClient := trillion.NewClient(cfg.VendorBaseURL, cfg.OutboundTimeout, m, logger)

	installService := application.NewInstallService(
		store, states, adminClient, verifier, m, logger,
		cfg.AppURL, cfg.ShopifyAPIKey, cfg.OAuthScopes,
	)
	credentialsService := application.NewCredentialsService(store, logger)
	provisioningService := application.NewProvisioningService(
		store, adminClient, vendorClient, m, logger, cfg.ImportConcurrency,
	)

	handlers := api.NewHandlers(installService, credentialsService, provisioningService, webhookVerifier, credentialsService, logger)
	router := api.NewRouter(handlers, registry)

	logger.Info().Str("port", cfg.Port).Msg("starting api server")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
