package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the journali service.
// Environment variables are parsed from the JOURNALI_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort        int           `envconfig:"HTTP_PORT" default:"8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Storage: postgres or sqlite
	DBDriver           string        `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL        string        `envconfig:"DATABASE_URL" default:""`
	SQLitePath         string        `envconfig:"SQLITE_PATH" default:"data/journali.db"`
	AutoMigrate        bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	DBMaxOpenConns     int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns     int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime  time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	HealthInterval     time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
	HealthProbeTimeout time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"2s"`

	// Auth
	JWTSecret   string        `envconfig:"JWT_SECRET" default:""`
	TokenIssuer string        `envconfig:"TOKEN_ISSUER" default:"journali.nl"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	BcryptCost  int           `envconfig:"BCRYPT_COST" default:"10"`
}

// ResolveDefaults validates the driver selection and fills in derived values.
// Outside production an empty JWT secret is replaced by a random per-process one.
func (c *Config) ResolveDefaults() error {
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}

	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("JOURNALI_DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("JOURNALI_SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unsupported LOG_LEVEL: %s", c.LogLevel)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JOURNALI_JWT_SECRET is required in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		c.JWTSecret = secret
		log.Warn().Msg("JOURNALI_JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Example: JOURNALI_HTTP_PORT, JOURNALI_DATABASE_URL
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("JOURNALI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Bool("database_url_present", cfg.DatabaseURL != "").
		Str("token_issuer", cfg.TokenIssuer).
		Dur("token_ttl", cfg.TokenTTL).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:        EnvTesting,
		LogLevel:           "debug",
		HTTPPort:           8000,
		ShutdownTimeout:    time.Second,
		DBDriver:           "sqlite",
		SQLitePath:         "journali-test.db",
		AutoMigrate:        true,
		DBMaxOpenConns:     4,
		DBMaxIdleConns:     2,
		DBConnMaxLifetime:  time.Minute,
		HealthInterval:     time.Second,
		HealthProbeTimeout: time.Second,
		JWTSecret:          "test-secret",
		TokenIssuer:        "journali.nl",
		TokenTTL:           30 * 24 * time.Hour,
		BcryptCost:         4,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
