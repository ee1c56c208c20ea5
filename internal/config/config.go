package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	App      AppConfig
	Metrics  MetricsConfig
	Events   EventsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"4000"`
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"1m"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin is required (use * to allow all)")
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" required:"true"`
	Port            string        `envconfig:"DB_PORT" required:"true"`
	User            string        `envconfig:"DB_USER" required:"true"`
	Password        string        `envconfig:"DB_PASSWORD" required:"true"`
	Name            string        `envconfig:"DB_NAME" required:"true"`
	SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections cannot be negative")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max idle connections (%d) cannot be greater than max open connections (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.ConnMaxLifetime <= 0 {
		return fmt.Errorf("connection max lifetime must be positive")
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// DSN returns the PostgreSQL connection string in the form gorm's postgres
// driver expects.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// AuthConfig holds credential settings. Secret signs every issued token.
type AuthConfig struct {
	Secret     string        `envconfig:"APP_SECRET" required:"true"`
	BcryptCost int           `envconfig:"AUTH_BCRYPT_COST" default:"10"`
	TokenTTL   time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"0s"` // 0 issues non-expiring tokens
}

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 16

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("secret must be at least %d bytes", MinSecretLength)
	}
	// bcrypt accepts costs 4..31
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("token TTL cannot be negative")
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"` // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// IsProduction reports whether the app runs in production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// MetricsConfig holds the Prometheus listener configuration.
type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Port    string `envconfig:"METRICS_PORT" default:"9090"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Port == "" {
		return fmt.Errorf("metrics port is required when metrics are enabled")
	}
	return nil
}

// EventsConfig sizes the in-process subscription buffers.
type EventsConfig struct {
	BufferSize int `envconfig:"EVENTS_BUFFER_SIZE" default:"100"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("events buffer size must be positive")
	}
	return nil
}

// Load loads configuration from environment variables only.
// (.env loading happens in the CLI, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []struct {
		name   string
		target interface{ Validate() error }
	}{
		{"Server", &cfg.Server},
		{"Database", &cfg.Database},
		{"Auth", &cfg.Auth},
		{"App", &cfg.App},
		{"Metrics", &cfg.Metrics},
		{"Events", &cfg.Events},
	}

	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
		if err := s.target.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}

	return cfg, nil
}
