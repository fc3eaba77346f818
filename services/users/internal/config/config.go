package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
)

// Config holds all configuration for the users service.
type Config struct {
	pkgconfig.Base

	HTTPPort   int    `env:"USERS_HTTP_PORT" envDefault:"8004"`
	PostgresDB string `env:"USERS_DB_NAME" envDefault:"users_db"`

	// JWT
	JWTAccessExpiry string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"60m"`

	BcryptCost int `env:"USERS_BCRYPT_COST" envDefault:"12"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load users config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate users config: %w", err)
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
		return fmt.Errorf("USERS_DB_NAME is required")
	}
	if d, err := time.ParseDuration(c.JWTAccessExpiry); err != nil || d <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRY must be a positive duration, got %q", c.JWTAccessExpiry)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("USERS_BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}

// AccessExpiry is the lifetime of an issued access token.
func (c *Config) AccessExpiry() time.Duration {
	d, _ := time.ParseDuration(c.JWTAccessExpiry)
	return d
}
