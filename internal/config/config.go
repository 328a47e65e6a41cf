package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddress   string        `envconfig:"LISTEN_ADDRESS" default:"127.0.0.1:3030"`
	RootRedirect    string        `envconfig:"ROOT_REDIRECT"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.ListenAddress, err)
	}
	if c.RootRedirect != "" {
		u, err := url.Parse(c.RootRedirect)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("root redirect must be an absolute URL, got %q", c.RootRedirect)
		}
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
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
	return nil
}

// Driver names the store backend selected by DATABASE_URL.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverLibSQL   Driver = "libsql"
)

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	URL          string        `envconfig:"DATABASE_URL" required:"true"`
	MaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns     int32         `envconfig:"DB_MIN_CONNS" default:"1"`
	QueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`
	Migrate      bool          `envconfig:"DB_MIGRATE" default:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database url cannot be empty")
	}
	if _, err := c.Driver(); err != nil {
		return err
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns < 0 {
		return fmt.Errorf("min connections cannot be negative")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}
	return nil
}

// Driver infers the backend from the URL scheme.
func (c *DatabaseConfig) Driver() (Driver, error) {
	scheme, _, ok := strings.Cut(c.URL, ":")
	if !ok {
		return "", fmt.Errorf("database url %q has no scheme", c.URL)
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "file", "sqlite":
		return DriverSQLite, nil
	case "libsql", "wss", "https":
		return DriverLibSQL, nil
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", scheme)
	}
}

// AuthConfig holds the credentials guarding the management surface.
type AuthConfig struct {
	UserID   string `envconfig:"USER_ID"`
	Password string `envconfig:"PASSWORD"`
	Realm    string `envconfig:"AUTH_REALM" default:"Login to access the management UI"`
	Match    string `envconfig:"AUTH_MATCH" default:"any"` // any, all
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Realm == "" {
		return fmt.Errorf("realm cannot be empty")
	}
	if strings.ContainsAny(c.Realm, "\"\r\n") {
		return fmt.Errorf("realm cannot contain quotes or line breaks")
	}
	if c.Match != "any" && c.Match != "all" {
		return fmt.Errorf("invalid auth match mode: %s (must be one of: any, all)", c.Match)
	}
	return nil
}

// Disabled reports whether no credentials are configured at all.
func (c *AuthConfig) Disabled() bool {
	return c.UserID == "" && c.Password == ""
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"production"` // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`     // debug, info, warn, error
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

// Load loads configuration from environment variables only.
// (.env loading happens in the app package for dev, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to load Database config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Database config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Auth); err != nil {
		return nil, fmt.Errorf("failed to load Auth config: %w", err)
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Auth config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	return cfg, nil
}
