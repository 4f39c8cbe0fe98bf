// Package config loads application configuration from the environment.
//
// All tunables flow from here into constructors — the page size ends up in
// the timeline service, the secret key in the token service, and so on.
// No package reads an environment variable directly; that keeps "where does
// this value come from" answerable in exactly one place.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting the server needs.
//
// The env struct tags are read by caarlos0/env: each field maps to one
// environment variable, with envDefault supplying the local-dev fallback.
// SECRET_KEY has no default on purpose — signing tokens with a well-known
// development secret in production is the classic footgun.
type Config struct {
	Port          int           `env:"PORT" envDefault:"8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/microblog.db"`
	SecretKey     string        `env:"SECRET_KEY,required"`
	PostsPerPage  int           `env:"POSTS_PER_PAGE" envDefault:"25"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"10m"`
}

// Load reads an optional .env file and then the process environment.
//
// godotenv.Load is best-effort: a missing .env is the normal case in
// production (real env vars are set by the deployment), so its error is
// ignored. env.Parse then fills the struct and enforces `required` tags.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	if cfg.PostsPerPage <= 0 {
		return nil, fmt.Errorf("config: POSTS_PER_PAGE must be positive, got %d", cfg.PostsPerPage)
	}
	return cfg, nil
}
