package config

import (
	"sort"
	"time"
)

// Runtime profiles.
const (
	ProfileDevelopment = "development"
	ProfileTest        = "test"
	ProfileStaging     = "staging"
	ProfileProduction  = "production"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	App       AppConfig                 `mapstructure:"app" validate:"required"`
	Server    ServerConfig              `mapstructure:"server" validate:"required"`
	Databases map[string]DatabaseConfig `mapstructure:"databases"`
	Auth      AuthConfig                `mapstructure:"auth"`
	Reporting ReportingConfig           `mapstructure:"reporting"`

	location *time.Location
}

// AppConfig identifies the application and its runtime profile.
type AppConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Locale   string `mapstructure:"locale" validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required"`
	Profile  string `mapstructure:"profile" validate:"required,oneof=development test staging production"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lt=65536"`
	Secure   bool   `mapstructure:"secure"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	IdleTimeoutSeconds     int `mapstructure:"idle_timeout_seconds" validate:"gte=0"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`

	CORS CORSConfig `mapstructure:"cors"`
	SSL  SSLConfig  `mapstructure:"ssl"`
}

// CORSConfig describes the cross-origin policy applied to every response.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds" validate:"gte=0"`
}

// SSLConfig holds the certificate material for encrypted transport. Either a
// certificate/key pair or a list of autocert hosts is required when
// ServerConfig.Secure is set.
type SSLConfig struct {
	CertFile         string   `mapstructure:"cert_file"`
	KeyFile          string   `mapstructure:"key_file"`
	AutocertHosts    []string `mapstructure:"autocert_hosts"`
	AutocertCacheDir string   `mapstructure:"autocert_cache_dir"`
}

// HasCertificate reports whether a certificate/key pair is configured.
func (s SSLConfig) HasCertificate() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

// DatabaseConfig describes one named PostgreSQL connection.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
	ConnectTimeoutSeconds  int    `mapstructure:"connect_timeout_seconds" validate:"gte=0"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains the bearer token settings guarding write routes.
// An empty JWTSecret disables authentication.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=0"`
}

// ReportingConfig configures where runtime faults are sent.
type ReportingConfig struct {
	SentryDSN string `mapstructure:"sentry_dsn" validate:"omitempty,url"`
}

// Location returns the resolved process timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// DatabaseNames returns the configured database names in sorted order.
func (c *Config) DatabaseNames() []string {
	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDevelopment reports whether the development profile is active.
func (c *Config) IsDevelopment() bool {
	return c.App.Profile == ProfileDevelopment
}

// IsTest reports whether the automated-test profile is active.
func (c *Config) IsTest() bool {
	return c.App.Profile == ProfileTest
}
