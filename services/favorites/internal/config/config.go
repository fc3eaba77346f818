package config

import (
	"fmt"

	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
)

// Config holds all configuration for the favorites service.
type Config struct {
	pkgconfig.Base

	HTTPPort   int    `env:"FAVORITES_HTTP_PORT" envDefault:"8003"`
	PostgresDB string `env:"FAVORITES_DB_NAME" envDefault:"favorites_db"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load favorites config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate favorites config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := pkgconfig.ValidPort("HTTP port", c.HTTPPort); err != nil {
		return err
	}
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if c.PostgresDB == "" {
		return fmt.Errorf("FAVORITES_DB_NAME is required")
	}
	return nil
}
