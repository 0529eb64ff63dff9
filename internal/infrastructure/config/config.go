package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string
	Port        int
	// HealthPort serves the gRPC health service; 0 disables it
	HealthPort int

	// Remote API configuration
	APIBaseURL   string
	APITimeout   time.Duration
	APIToken     string
	APIUserAgent string

	// Resource cache
	CacheMaxAge      time.Duration
	CacheMaxAttempts int
	CacheLoadTimeout time.Duration

	// Views
	DefaultPageSize int

	// Observability
	JaegerEndpoint string
	LogLevel       string
	LogFormat      string // json or console

	// Graceful Shutdown
	ShutdownTimeout time.Duration

	// Feature Flags
	EnableMetrics bool
	EnableTracing bool

	// Timeouts
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnvAsInt("PORT", 8080),
		HealthPort:  getEnvAsInt("HEALTH_PORT", 9090),

		// Remote API
		APIBaseURL:   getEnv("API_BASE_URL", "https://jsonplaceholder.typicode.com"),
		APITimeout:   getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		APIToken:     getEnv("API_TOKEN", ""),
		APIUserAgent: getEnv("API_USER_AGENT", "postdeck/1.0"),

		// Cache
		CacheMaxAge:      getEnvAsDuration("CACHE_MAX_AGE", 0),
		CacheMaxAttempts: getEnvAsInt("CACHE_MAX_ATTEMPTS", 2),
		CacheLoadTimeout: getEnvAsDuration("CACHE_LOAD_TIMEOUT", 30*time.Second),

		// Views
		DefaultPageSize: getEnvAsInt("DEFAULT_PAGE_SIZE", 10),

		// Observability
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "localhost:4317"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),

		// Graceful Shutdown
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Feature Flags
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		EnableTracing: getEnvAsBool("ENABLE_TRACING", false),

		// Timeouts
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL: %q", c.APIBaseURL)
	}

	// Port validation
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.HealthPort < 0 || c.HealthPort > 65535 || c.HealthPort == c.Port {
		return fmt.Errorf("invalid health port: %d", c.HealthPort)
	}

	if c.CacheMaxAttempts < 1 || c.CacheMaxAttempts > 2 {
		return fmt.Errorf("invalid cache max attempts: %d (valid: 1, 2)", c.CacheMaxAttempts)
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("cache max age cannot be negative: %s", c.CacheMaxAge)
	}

	if c.DefaultPageSize < 1 || c.DefaultPageSize > 100 {
		return fmt.Errorf("invalid default page size: %d (valid: 1-100)", c.DefaultPageSize)
	}

	// Log level validation
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	// Log format validation
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	Token     string
	UserAgent string
}

func (c *Config) GetAPIConfig() APIConfig {
	return APIConfig{
		BaseURL:   c.APIBaseURL,
		Timeout:   c.APITimeout,
		Token:     c.APIToken,
		UserAgent: c.APIUserAgent,
	}
}

type CacheConfig struct {
	MaxAge      time.Duration
	MaxAttempts int
	LoadTimeout time.Duration
}

func (c *Config) GetCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:      c.CacheMaxAge,
		MaxAttempts: c.CacheMaxAttempts,
		LoadTimeout: c.CacheLoadTimeout,
	}
}

type ServerConfig struct {
	Port            int
	HealthPort      int
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

func (c *Config) GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:            c.Port,
		HealthPort:      c.HealthPort,
		ShutdownTimeout: c.ShutdownTimeout,
		RequestTimeout:  c.RequestTimeout,
	}
}

type ObservabilityConfig struct {
	EnableMetrics  bool
	EnableTracing  bool
	JaegerEndpoint string
	LogLevel       string
	LogFormat      string
}

func (c *Config) GetObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		EnableMetrics:  c.EnableMetrics,
		EnableTracing:  c.EnableTracing,
		JaegerEndpoint: c.JaegerEndpoint,
		LogLevel:       c.LogLevel,
		LogFormat:      c.LogFormat,
	}
}
