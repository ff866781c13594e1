// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds everything the api binary needs. The core depends only on the
// abstract store and text-generator interfaces; the concrete backends are
// selected here.
type Config struct {
	Addr        string `env:"DATENWACHT_ADDR" env-default:":8080"`
	PostgresDSN string `env:"DATENWACHT_PG_DSN"`

	// AIProvider selects the text-generation backend: "static" needs no
	// credentials, "anthropic" requires AIAPIKey.
	AIProvider string `env:"DATENWACHT_AI_PROVIDER" env-default:"static"`
	AIModel    string `env:"DATENWACHT_AI_MODEL" env-default:"claude-3-5-sonnet-latest"`
	AIAPIKey   string `env:"DATENWACHT_AI_API_KEY"`

	// Per-IP token bucket for the whole API.
	RateBurst  int `env:"DATENWACHT_RATE_BURST" env-default:"20"`
	RatePerSec int `env:"DATENWACHT_RATE_PER_SEC" env-default:"10"`

	// Per-caller budget for AI generation calls.
	AIRatePerMinute int `env:"DATENWACHT_AI_RATE_PER_MIN" env-default:"3"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.AIProvider == "anthropic" && cfg.AIAPIKey == "" {
		return Config{}, fmt.Errorf("DATENWACHT_AI_API_KEY is required for the anthropic provider")
	}
	return cfg, nil
}
