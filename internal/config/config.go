// Package config provides configuration types for paapi-gate.
//
// Configuration is file based (paapi-gate.yaml) with environment overrides.
// Nothing is persisted. Credentials, API keys and the optional fixture
// catalog all come from configuration.
package config

import (
	"github.com/spf13/viper"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// Config is the top-level configuration for paapi-gate.
type Config struct {
	// Server configures the HTTP server listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Credentials are the stored PAAPI credentials every entry runs with.
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`

	// PAAPI configures the outbound PAAPI client.
	PAAPI PAAPIConfig `yaml:"paapi" mapstructure:"paapi"`

	// Auth configures API keys for the HTTP API.
	// Optional: when empty, the HTTP API accepts unauthenticated requests.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Telemetry configures OpenTelemetry tracing and metrics export.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode serves from the in-memory catalog with placeholder credentials
	// and debug logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Defaults to "127.0.0.1:8080" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// AllowedOrigins lists browser origins accepted by the HTTP API.
	// Requests carrying any other Origin header are rejected.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins" validate:"omitempty,dive,url"`

	// RateLimit configures the per-caller request budget.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig configures rate limiting of HTTP API requests. Callers are
// keyed by API key name, or by client IP when authentication is off.
type RateLimitConfig struct {
	// Enabled turns rate limiting on or off.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// PerMinute is the sustained number of requests per minute per caller.
	// Defaults to 120.
	PerMinute int `yaml:"per_minute" mapstructure:"per_minute" validate:"omitempty,min=1"`

	// Burst is how many requests a caller may make at once.
	// Defaults to 20.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"omitempty,min=1"`

	// CleanupInterval is how often idle entries are pruned (e.g., "5m").
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty,duration"`

	// MaxTTL is how long an idle caller entry is kept (e.g., "1h").
	MaxTTL string `yaml:"max_ttl" mapstructure:"max_ttl" validate:"omitempty,duration"`
}

// CredentialsConfig holds the stored PAAPI credentials.
type CredentialsConfig struct {
	AccessKey string `yaml:"access_key" mapstructure:"access_key" validate:"required"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key" validate:"required"`

	// PartnerTag is the default tracking ID. Entries may override it.
	PartnerTag string `yaml:"partner_tag" mapstructure:"partner_tag"`

	// Marketplace is the storefront host (e.g., "www.amazon.co.uk").
	// Defaults to "www.amazon.com".
	Marketplace string `yaml:"marketplace" mapstructure:"marketplace" validate:"required,marketplace"`
}

// Credentials converts the stored credentials for the normalizer.
func (c CredentialsConfig) Credentials() paapi.Credentials {
	return paapi.Credentials{
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		PartnerTag:  c.PartnerTag,
		Marketplace: c.Marketplace,
	}
}

// PAAPIConfig configures the outbound PAAPI client.
type PAAPIConfig struct {
	// Endpoint overrides the marketplace host (e.g., "http://127.0.0.1:9000").
	// Only useful against a local stand-in.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`

	// Timeout is the HTTP timeout per PAAPI call (e.g., "10s").
	// Defaults to "10s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`

	// RateLimit is the outbound request rate in requests per second.
	// PAAPI starts new associates at 1 TPS. Defaults to 1.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" validate:"omitempty,gt=0"`

	// Burst is the outbound burst size. Defaults to 1.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"omitempty,min=1"`

	// CatalogFile is a YAML fixture served by the in-memory client in dev
	// mode. Empty uses the built-in sample catalog.
	CatalogFile string `yaml:"catalog_file" mapstructure:"catalog_file" validate:"omitempty,file"`
}

// AuthConfig configures API key authentication.
type AuthConfig struct {
	// APIKeys defines the accepted API keys.
	APIKeys []APIKeyConfig `yaml:"api_keys" mapstructure:"api_keys" validate:"omitempty,dive"`
}

// APIKeyConfig defines one API key.
type APIKeyConfig struct {
	// Name identifies the caller in logs and rate limits.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// KeyHash is an argon2id PHC string (see "paapi-gate hash-key") or the
	// SHA-256 hex of the key, optionally prefixed with "sha256:".
	KeyHash string `yaml:"key_hash" mapstructure:"key_hash" validate:"required,key_hash"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	// Enabled exports spans and metrics to stderr.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// ServiceName is the service.name resource attribute.
	// Defaults to "paapi-gate".
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// Dev mode placeholders.
const (
	devAccessKey  = "dev-access-key"
	devSecretKey  = "dev-secret-key"
	devPartnerTag = "dev-20"

	// SHA256 of "dev-api-key"
	devAPIKeyHash = "sha256:6e1e4e1b8f8b36d08901cdb51b97841dfe20f5efd2fd2fd00768971408c46274"
)

// SetDevDefaults applies permissive defaults for development mode.
// This allows running paapi-gate with no config file at all.
// These defaults are applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	if c.Credentials.AccessKey == "" {
		c.Credentials.AccessKey = devAccessKey
	}
	if c.Credentials.SecretKey == "" {
		c.Credentials.SecretKey = devSecretKey
	}
	if c.Credentials.PartnerTag == "" {
		c.Credentials.PartnerTag = devPartnerTag
	}

	// Provide a default dev API key if none configured
	if len(c.Auth.APIKeys) == 0 {
		c.Auth.APIKeys = []APIKeyConfig{
			{Name: "dev", KeyHash: devAPIKeyHash},
		}
	}

	c.Server.LogLevel = "debug"
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Bind to localhost only. Network access needs an explicit http_addr.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	// Rate limiting is on unless the key is explicitly set to false.
	if !viper.IsSet("server.rate_limit.enabled") {
		c.Server.RateLimit.Enabled = true
	}
	if c.Server.RateLimit.PerMinute == 0 {
		c.Server.RateLimit.PerMinute = 120
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 20
	}
	if c.Server.RateLimit.CleanupInterval == "" {
		c.Server.RateLimit.CleanupInterval = "5m"
	}
	if c.Server.RateLimit.MaxTTL == "" {
		c.Server.RateLimit.MaxTTL = "1h"
	}

	if c.Credentials.Marketplace == "" {
		c.Credentials.Marketplace = paapi.DefaultMarketplace
	}

	if c.PAAPI.Timeout == "" {
		c.PAAPI.Timeout = "10s"
	}
	if c.PAAPI.RateLimit == 0 {
		c.PAAPI.RateLimit = 1
	}
	if c.PAAPI.Burst == 0 {
		c.PAAPI.Burst = 1
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "paapi-gate"
	}
}
