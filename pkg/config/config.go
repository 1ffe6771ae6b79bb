// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey means QUARTR_API_KEY is not set.
var ErrMissingAPIKey = errors.New("QUARTR_API_KEY is not set")

type Config struct {
	// APIKey authenticates every API request and file download.
	APIKey string
	// DataDir is the root directory the output trees are written under.
	DataDir string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present but never overrides real env vars.
func Load() (Config, error) {
	_ = godotenv.Load()

	apiKey := os.Getenv("QUARTR_API_KEY")
	if apiKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	return Config{
		APIKey:  apiKey,
		DataDir: envStr("QUARTR_DATA_DIR", "."),
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
