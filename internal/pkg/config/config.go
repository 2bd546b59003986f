// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the complete runtime configuration of the fulfillment service.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH" envDefault:"./data/fulfillment.db"`

	// AuthHMACKey is the shared secret for verifying the identity
	// collaborator's tokens. The service refuses to start without it.
	AuthHMACKey string `env:"AUTH_HMAC_KEY"`

	// IdentityBaseURL points at the identity collaborator; empty disables
	// customer snapshot decoration.
	IdentityBaseURL string `env:"IDENTITY_BASE_URL"`

	// RedisAddr enables snapshot caching when set.
	RedisAddr string `env:"REDIS_ADDR"`

	// KafkaBrokers is a comma-separated list; empty disables the Kafka sink.
	KafkaBrokers string `env:"KAFKA_BROKERS"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AuthHMACKey == "" {
		return Config{}, errors.New("AUTH_HMAC_KEY is required")
	}
	return cfg, nil
}
