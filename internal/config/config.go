package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port            int    `env:"PORT" envDefault:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	RedisURL        string `env:"REDIS_URL,required"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"6"`
	AllowedOrigin   string `env:"ALLOWED_ORIGIN" envDefault:""`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

// SessionTTL is the retention window for a session: a room stays joinable
// by code for this long after creation, then the store reaps it.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
