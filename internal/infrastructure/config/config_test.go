package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("CACHE_MAX_AGE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.APIBaseURL)
	assert.Equal(t, 2, cfg.CacheMaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.CacheMaxAge)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 9090, cfg.GetServerConfig().HealthPort)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:3000")
	t.Setenv("CACHE_MAX_AGE", "90s")
	t.Setenv("CACHE_MAX_ATTEMPTS", "1")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.GetCacheConfig().MaxAge)
	assert.Equal(t, 1, cfg.GetCacheConfig().MaxAttempts)
	assert.Equal(t, "http://localhost:3000", cfg.GetAPIConfig().BaseURL)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:       "http://localhost:3000",
			Port:             8080,
			CacheMaxAttempts: 2,
			DefaultPageSize:  10,
			LogLevel:         "info",
			LogFormat:        "json",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.APIBaseURL = "" }},
		{"relative base url", func(c *Config) { c.APIBaseURL = "/api" }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"health port clash", func(c *Config) { c.HealthPort = 8080 }},
		{"too many attempts", func(c *Config) { c.CacheMaxAttempts = 5 }},
		{"negative max age", func(c *Config) { c.CacheMaxAge = -time.Second }},
		{"page size", func(c *Config) { c.DefaultPageSize = 500 }},
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
