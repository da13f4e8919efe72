// Package config manages environment variables.
//
// It reads variables from the process environment (optionally seeded
// from a `.env` file), maps them into structured Go types, validates
// that required values are present, and fills in defaults for the
// optional ones.
//
// Environment keys use the PROFORMANCE_ prefix and double underscores
// for nesting, e.g. PROFORMANCE_DATABASE__URL -> database.url.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a .env file into the process env before
	// anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is the root configuration object for the application.
type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Auth     AuthConfig     `koanf:"auth"`
	Admin    AdminConfig    `koanf:"admin"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout"`
	WriteTimeout       int      `koanf:"write_timeout"`
	IdleTimeout        int      `koanf:"idle_timeout"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// DatabaseConfig contains the PostgreSQL connection string and the
// connect-retry tuning used by the gateway.
type DatabaseConfig struct {
	URL string `koanf:"url" validate:"required"`

	// Bounded connect loop: ConnectAttempts tries, waiting
	// min(BackoffBase*attempt, BackoffCap) seconds between them.
	ConnectAttempts int `koanf:"connect_attempts"`
	BackoffBase     int `koanf:"backoff_base"`
	BackoffCap      int `koanf:"backoff_cap"`

	MaxConns    int `koanf:"max_conns"`
	PingTimeout int `koanf:"ping_timeout"`
}

// AuthConfig stores the token signing secret and credential lifetimes.
//
// SecretKey is deliberately not required: with no secret configured the
// service still boots, but token issuance is disabled and logins fail.
type AuthConfig struct {
	SecretKey       string `koanf:"secret_key"`
	AccessTokenTTL  int    `koanf:"access_token_ttl"`
	RefreshTokenTTL int    `koanf:"refresh_token_ttl"`
}

// AdminConfig describes the single built-in privileged account.
type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
}

const (
	defaultAccessTokenTTL  = 900    // 15 minutes
	defaultRefreshTokenTTL = 604800 // 7 days
	defaultConnectAttempts = 5
	defaultBackoffBase     = 2
	defaultBackoffCap      = 8
	defaultMaxConns        = 10
	defaultPingTimeout     = 10
	defaultReadTimeout     = 15
	defaultWriteTimeout    = 30
	defaultIdleTimeout     = 60
)

// Load reads the environment into a validated Config with defaults applied.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider("PROFORMANCE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "PROFORMANCE_")), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Primary.Env == "" {
		c.Primary.Env = "local"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}
	if c.Database.ConnectAttempts == 0 {
		c.Database.ConnectAttempts = defaultConnectAttempts
	}
	if c.Database.BackoffBase == 0 {
		c.Database.BackoffBase = defaultBackoffBase
	}
	if c.Database.BackoffCap == 0 {
		c.Database.BackoffCap = defaultBackoffCap
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = defaultMaxConns
	}
	if c.Database.PingTimeout == 0 {
		c.Database.PingTimeout = defaultPingTimeout
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = defaultAccessTokenTTL
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if c.Admin.Name == "" {
		c.Admin.Name = "Admin"
	}
}
