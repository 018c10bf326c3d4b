package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_STORE", "acme-store")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2023-07", cfg.ShopifyAPIVersion)
	assert.Equal(t, 2*time.Second, cfg.DebounceWindow)
	assert.Equal(t, 20*time.Second, cfg.OpenAIRateLimitBackoff)
	assert.Equal(t, 3, cfg.OpenAIMaxAttempts)
	assert.Equal(t, 300, cfg.OpenAIMaxTokens)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "file", cfg.IgnoreListBackend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "acme-store.myshopify.com", cfg.ShopDomain())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHOPIFY_STORE", "https://shop.example.com/")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_test")
	t.Setenv("DEBOUNCE_WINDOW", "500ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "shop.example.com", cfg.ShopDomain())
}

func TestValidate(t *testing.T) {
	cfg := Config{
		HTTPTimeout:       time.Second,
		DebounceWindow:    time.Second,
		OpenAIMaxAttempts: 3,
		BulkConcurrency:   1,
		IgnoreListBackend: "ftp",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_STORE is required")
	assert.Contains(t, err.Error(), "SHOPIFY_ACCESS_TOKEN is required")
	assert.Contains(t, err.Error(), "IGNORE_LIST_BACKEND")
}
