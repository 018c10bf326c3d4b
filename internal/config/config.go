package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// API Configuration
	APIPort string `envconfig:"API_PORT" default:"5000"`
	APIHost string `envconfig:"API_HOST" default:"0.0.0.0"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Outbound HTTP
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// Shopify
	ShopifyStore         string `envconfig:"SHOPIFY_STORE"`
	ShopifyAccessToken   string `envconfig:"SHOPIFY_ACCESS_TOKEN"`
	ShopifyAPIVersion    string `envconfig:"SHOPIFY_API_VERSION" default:"2023-07"`
	ShopifyWebhookSecret string `envconfig:"SHOPIFY_WEBHOOK_SECRET"`

	// OpenAI
	OpenAIAPIKey           string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL          string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel            string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIMaxTokens        int           `envconfig:"OPENAI_MAX_TOKENS" default:"300"`
	OpenAIMaxAttempts      int           `envconfig:"OPENAI_MAX_ATTEMPTS" default:"3"`
	OpenAIRateLimitBackoff time.Duration `envconfig:"OPENAI_RATE_LIMIT_BACKOFF" default:"20s"`

	// Reconciliation
	DebounceWindow time.Duration `envconfig:"DEBOUNCE_WINDOW" default:"2s"`

	// Bulk content workflow
	BulkConcurrency  int    `envconfig:"BULK_CONCURRENCY" default:"4"`
	ImageSearchURL   string `envconfig:"IMAGE_SEARCH_URL" default:"https://www.google.com/search"`
	ImageSearchLimit int    `envconfig:"IMAGE_SEARCH_LIMIT" default:"10"`

	// Ignore list
	IgnoreListBackend string `envconfig:"IGNORE_LIST_BACKEND" default:"file"`
	IgnoreListFile    string `envconfig:"IGNORE_LIST_FILE" default:"ignored_products.txt"`
	IgnoreListKey     string `envconfig:"IGNORE_LIST_KEY" default:"catalogsync:ignored_products"`

	// Redis
	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite://catalogsync.db"`

	// Kafka
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"inventory-events"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:"catalogsync-worker"`

	// Environment
	Env           string `envconfig:"ENV" default:"development"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogBufferSize int    `envconfig:"LOG_BUFFER_SIZE" default:"1000"`
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.ShopifyStore == "" {
		errs = append(errs, errors.New("SHOPIFY_STORE is required"))
	}
	if c.ShopifyAccessToken == "" {
		errs = append(errs, errors.New("SHOPIFY_ACCESS_TOKEN is required"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be > 0"))
	}
	if c.DebounceWindow <= 0 {
		errs = append(errs, errors.New("DEBOUNCE_WINDOW must be > 0"))
	}
	if c.OpenAIMaxAttempts <= 0 {
		errs = append(errs, errors.New("OPENAI_MAX_ATTEMPTS must be > 0"))
	}
	if c.BulkConcurrency <= 0 {
		errs = append(errs, errors.New("BULK_CONCURRENCY must be > 0"))
	}
	switch c.IgnoreListBackend {
	case "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("IGNORE_LIST_BACKEND must be file or redis, got %q", c.IgnoreListBackend))
	}

	return errors.Join(errs...)
}

// Address returns the listen address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.APIHost, c.APIPort)
}

// ShopDomain normalizes SHOPIFY_STORE to a full myshopify domain.
func (c *Config) ShopDomain() string {
	store := strings.TrimSpace(c.ShopifyStore)
	store = strings.TrimPrefix(store, "https://")
	store = strings.TrimSuffix(store, "/")
	if !strings.Contains(store, ".") {
		store += ".myshopify.com"
	}
	return store
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
