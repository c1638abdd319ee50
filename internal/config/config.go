// Package config manages environment variables.
//
// It reads variables (optionally from a `.env` file), loads them into
// structured Go types and validates that required values are present so
// they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables with the PRODUTO_ prefix.
//   - Map env vars into nested structs ("__" separates levels).
//   - Provide defaults for everything that has a sane one.
//   - Validate required values so a cold start fails fast on bad config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process env when present.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
//
//	PRODUTO_DATABASE__HOST -> database.host -> Config.Database.Host
const EnvPrefix = "PRODUTO_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. Defaults are seeded
// before unmarshalling so env vars only override individual fields.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Produto       ProdutoConfig        `koanf:"produto"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env     string `koanf:"env" validate:"required"`
	Service string `koanf:"service" validate:"required"`
	Version string `koanf:"version" validate:"required"`
}

// ServerConfig groups settings for the local HTTP server (`produto serve`).
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	RateLimit          float64  `koanf:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// AcquireTimeout bounds how long one invocation waits for a pooled connection.
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int           `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int           `koanf:"conn_max_idle_time" validate:"required"`
	AcquireTimeout  time.Duration `koanf:"acquire_timeout" validate:"required"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables the product cache and background jobs.
type RedisConfig struct {
	Address  string        `koanf:"address"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// AuthConfig selects the identity provider and its secrets.
//
//   - jwt: tokens verified locally with JWTSecret (HS256) or JWTPublicKey (RS256 PEM).
//   - clerk: Clerk session tokens, verified with the Clerk SecretKey.
type AuthConfig struct {
	Provider     string `koanf:"provider" validate:"required,oneof=jwt clerk"`
	SecretKey    string `koanf:"secret_key" validate:"required_if=Provider clerk"`
	JWTSecret    string `koanf:"jwt_secret"`
	JWTPublicKey string `koanf:"jwt_public_key"`
	Issuer       string `koanf:"issuer"`
	Audience     string `koanf:"audience"`
}

// IntegrationConfig holds third-party credentials.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
	AlertEmail   string `koanf:"alert_email"`
}

// ProdutoConfig holds domain tunables.
type ProdutoConfig struct {
	LowStockThreshold int `koanf:"low_stock_threshold" validate:"min=0"`
}

var defaults = map[string]any{
	"primary.service":             "produto-service",
	"primary.version":             "1.0.0",
	"server.port":                 "8080",
	"server.read_timeout":         30,
	"server.write_timeout":        30,
	"server.idle_timeout":         60,
	"server.cors_allowed_origins": []string{"*"},
	"server.rate_limit":           20.0,
	"database.port":               5432,
	"database.ssl_mode":           "disable",
	"database.max_open_conns":     10,
	"database.max_idle_conns":     2,
	"database.conn_max_lifetime":  1800,
	"database.conn_max_idle_time": 300,
	"database.acquire_timeout":    "5s",
	"redis.cache_ttl":             "5m",
	"auth.provider":               "jwt",
	"integration.email_from":      "Produto Service <alertas@resend.dev>",
	"produto.low_stock_threshold": 5,
}

// listKeys hold comma separated values in the environment:
//
//	PRODUTO_SERVER__CORS_ALLOWED_ORIGINS=https://a.test,https://b.test
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// envKeyValue maps PRODUTO_DATABASE__HOST to database.host and splits the
// values of list keys. An empty list is skipped so its default applies.
func envKeyValue(name, value string) (string, any) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
	if !listKeys[key] {
		return key, value
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return "", nil
	}
	return key, items
}

// LoadConfig loads configuration from environment variables, applies
// defaults, validates it and returns the resulting config.
//
// Unlike a long-lived server, a Lambda cold start must be able to report
// a bad configuration, so every failure is returned instead of exiting.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, fmt.Errorf("could not set default %s: %w", key, err)
			}
		}
	}

	mainConfig := &Config{Observability: DefaultObservabilityConfig()}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Auth.validateKeys(); err != nil {
		return nil, err
	}

	// Service name and environment always follow the primary block so logs
	// and traces agree with the health endpoint.
	mainConfig.Observability.ServiceName = mainConfig.Primary.Service
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (a AuthConfig) validateKeys() error {
	if a.Provider == "jwt" && a.JWTSecret == "" && a.JWTPublicKey == "" {
		return fmt.Errorf("auth.provider jwt requires auth.jwt_secret or auth.jwt_public_key")
	}
	return nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
