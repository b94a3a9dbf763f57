package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the parameters the API needs at startup. All values are read
// once; nothing here mutates after Load returns.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// HMACKey signs and verifies session tokens. There is no required format;
	// in practice it should be a long random string that is infeasible to
	// brute-force.
	HMACKey string

	// ServerPassword gates creation of MyAce team accounts.
	ServerPassword string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored for development; missing .env is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:            envOr("MYACE_ADDR", ":8080"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HMACKey:         strings.TrimSpace(os.Getenv("MYACE_HMAC_KEY")),
		ServerPassword:  strings.TrimSpace(os.Getenv("MYACE_SERVER_PASSWORD")),
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.HMACKey == "" {
		return Config{}, fmt.Errorf("MYACE_HMAC_KEY is required")
	}
	if cfg.ServerPassword == "" {
		return Config{}, fmt.Errorf("MYACE_SERVER_PASSWORD is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
