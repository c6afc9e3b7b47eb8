package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	AppURL            string        `env:"APP_URL" envDefault:"http://localhost:8080"`
	ShopifyAPIKey     string        `env:"SHOPIFY_API_KEY,required"`
	ShopifyAPISecret  string        `env:"SHOPIFY_API_SECRET,required"`
	ShopifyAPIVersion string        `env:"SHOPIFY_API_VERSION" envDefault:"2024-10"`
	OAuthScopes       string        `env:"SHOPIFY_OAUTH_SCOPES" envDefault:"read_products,write_products,read_themes,write_themes,read_content,write_content"`
	DatabaseURL       string        `env:"DATABASE_URL,required"`
	RedisAddr         string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	VendorBaseURL     string        `env:"TRILLION_BACKEND_URL" envDefault:"https://dashboard.trillion.jewelry"`
	OutboundTimeout   time.Duration `env:"OUTBOUND_TIMEOUT" envDefault:"15s"`
	UploadTimeout     time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"60s"`
	OAuthStateTTL     time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	ImportConcurrency int           `env:"IMPORT_CONCURRENCY" envDefault:"4"`
}

// Load reads configuration from environment variables. A .env file is loaded
// first when present, for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
