package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultJWTSecret = "supersecretkey"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string `env:"ENV" envDefault:"dev"`

	// Store selects the gateway adapter: "memory" (seeded at startup) or "postgres".
	Store string `env:"STORE" envDefault:"memory"`
	// SeedFile replaces the embedded seed for the memory store.
	SeedFile string `env:"SEED_FILE"`

	DBHost string `env:"DB_HOST" envDefault:"localhost"`
	DBPort string `env:"DB_PORT" envDefault:"5432"`
	DBName string `env:"DB_NAME" envDefault:"mlregistry"`
	DBUser string `env:"DB_USER" envDefault:"mlregistry"`
	DBPass string `env:"DB_PASS" envDefault:"mlregistry"`

	DBMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"supersecretkey"`
	// JWTExpireHours is the token lifetime in hours.
	JWTExpireHours int `env:"JWT_EXPIRE_HOURS" envDefault:"24"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// CORSOrigins is the raw comma-separated CORS_ALLOWED_ORIGINS; see CORSAllowedOrigins.
	CORSOrigins        string `env:"CORS_ALLOWED_ORIGINS"`
	CORSAllowedOrigins []string

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// WebPort and APIURL configure the dashboard, which talks to the API over HTTP.
	WebPort string `env:"MLREG_WEB_PORT" envDefault:"8081"`
	APIURL  string `env:"MLREG_API_URL" envDefault:"http://localhost:8080"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return Config{}, aggErr.Errors[0]
		}
		return Config{}, err
	}
	cfg.CORSAllowedOrigins = parseCORSOrigins(cfg.CORSOrigins)
	return cfg, nil
}

// JWTExpiry is the session lifetime.
func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpireHours) * time.Hour
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	if c.Store != StoreMemory && c.Store != StorePostgres {
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if c.JWTExpireHours <= 0 {
		return errors.New("JWT_EXPIRE_HOURS must be positive")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}
