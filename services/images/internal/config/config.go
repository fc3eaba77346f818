package config

import (
	"fmt"
	"strings"

	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverLocal  = "local"
)

// Config holds all configuration for the images service.
type Config struct {
	pkgconfig.Base

	HTTPPort   int    `env:"IMAGES_HTTP_PORT" envDefault:"8005"`
	PostgresDB string `env:"IMAGES_DB_NAME" envDefault:"images_db"`

	// Storage
	StorageDriver string `env:"IMAGES_STORAGE_DRIVER" envDefault:"local"`
	StorageDir    string `env:"IMAGES_STORAGE_DIR" envDefault:"./data/images"`
	PublicURL     string `env:"IMAGES_PUBLIC_URL" envDefault:"http://localhost:8005/files"`
	MaxUploadMB   int    `env:"IMAGES_MAX_UPLOAD_MB" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load images config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate images config: %w", err)
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
		return fmt.Errorf("IMAGES_DB_NAME is required")
	}
	switch c.StorageDriver {
	case DriverMemory:
	case DriverLocal:
		if c.StorageDir == "" {
			return fmt.Errorf("IMAGES_STORAGE_DIR is required for the local driver")
		}
	default:
		return fmt.Errorf("IMAGES_STORAGE_DRIVER must be %q or %q, got %q", DriverMemory, DriverLocal, c.StorageDriver)
	}
	if !strings.HasPrefix(c.PublicURL, "http://") && !strings.HasPrefix(c.PublicURL, "https://") {
		return fmt.Errorf("IMAGES_PUBLIC_URL must be an http(s) URL, got %q", c.PublicURL)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("IMAGES_MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes is the largest accepted file.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
