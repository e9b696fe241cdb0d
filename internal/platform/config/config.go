// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles process-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

The signing secret and token lifetime have insecure defaults meant for local
development only. [Config.Validate] refuses to start a production process that
still uses them.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is the development signing secret. Never valid in production.
const DefaultJWTSecret = "insecure-dev-secret-change-me"

// # Configuration Schema

// Config holds all runtime configuration for the API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// RedisURL enables the token denylist. Empty keeps the engine stateless.
	RedisURL string `env:"REDIS_URL"`

	// Token signing
	JWTSecret string        `env:"JWT_SECRET" envDefault:"insecure-dev-secret-change-me"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"teachplan"`
	TokenTTL  time.Duration `env:"TOKEN_TTL"  envDefault:"24h"`

	// HashWorkers bounds concurrent password derivations.
	HashWorkers int `env:"HASH_WORKERS" envDefault:"4"`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports misconfiguration that must abort startup.
func (c *Config) Validate() error {
	var errs []error

	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.HashWorkers < 1 {
		errs = append(errs, fmt.Errorf("config: HASH_WORKERS must be at least 1, got %d", c.HashWorkers))
	}
	if c.IsProduction() {
		secret := strings.TrimSpace(c.JWTSecret)
		if secret == "" || secret == DefaultJWTSecret {
			errs = append(errs, errors.New("config: JWT_SECRET must be overridden in production"))
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the configured CORS allow-list.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}
