package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ENSEMBLE"

// DefaultDatabaseName is the name given to the database registered through
// the ENSEMBLE_DATABASE_URL shortcut.
const DefaultDatabaseName = "main"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if url := v.GetString("database.url"); url != "" {
		if cfg.Databases == nil {
			cfg.Databases = make(map[string]DatabaseConfig)
		}
		if _, exists := cfg.Databases[DefaultDatabaseName]; !exists {
			cfg.Databases[DefaultDatabaseName] = DatabaseConfig{
				URL:         url,
				AutoMigrate: v.GetBool("database.auto_migrate"),
			}
		}
	}
	applyDatabaseDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("validation failed: unknown timezone %q: %w", cfg.App.Timezone, err)
	}
	cfg.location = loc

	return &cfg, nil
}

// readConfigFile reads ENSEMBLE_CONFIG_FILE when set, otherwise an optional
// config.yaml from the working directory. A missing default file is not an error.
func readConfigFile(v *viper.Viper) error {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ensemble-api")
	v.SetDefault("app.locale", "en")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("app.profile", ProfileProduction)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secure", false)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"})
	v.SetDefault("server.cors.allow_credentials", false)
	v.SetDefault("server.cors.max_age_seconds", 600)

	v.SetDefault("server.ssl.cert_file", "")
	v.SetDefault("server.ssl.key_file", "")
	v.SetDefault("server.ssl.autocert_hosts", []string{})
	v.SetDefault("server.ssl.autocert_cache_dir", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("reporting.sentry_dsn", "")
}

func applyDatabaseDefaults(cfg *Config) {
	for name, db := range cfg.Databases {
		if db.MaxOpenConns == 0 {
			db.MaxOpenConns = 10
		}
		if db.MaxIdleConns == 0 {
			db.MaxIdleConns = 5
		}
		if db.ConnMaxLifetimeMinutes == 0 {
			db.ConnMaxLifetimeMinutes = 5
		}
		if db.ConnectTimeoutSeconds == 0 {
			db.ConnectTimeoutSeconds = 10
		}
		cfg.Databases[name] = db
	}
}

func validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	for name, db := range cfg.Databases {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("validation failed: database name cannot be empty")
		}
		if err := validate.Struct(db); err != nil {
			return fmt.Errorf("validation failed: database %q: %w", name, err)
		}
	}
	if cfg.Server.Secure && !cfg.Server.SSL.HasCertificate() && len(cfg.Server.SSL.AutocertHosts) == 0 {
		return fmt.Errorf("validation failed: secure server requires ssl.cert_file/ssl.key_file or ssl.autocert_hosts")
	}
	return nil
}
