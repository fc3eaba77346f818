package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
)

// Blob store backends.
const (
	BlobStoreHTTP   = "http"
	BlobStoreMemory = "memory"
)

// Config holds all configuration for the opinions service.
type Config struct {
	pkgconfig.Base

	HTTPPort   int    `env:"OPINIONS_HTTP_PORT" envDefault:"8002"`
	PostgresDB string `env:"OPINIONS_DB_NAME" envDefault:"opinions_db"`

	// Images service
	BlobStore            string `env:"OPINIONS_BLOB_STORE" envDefault:"http"`
	ImagesServiceURL     string `env:"IMAGES_SERVICE_URL" envDefault:"http://localhost:8005"`
	ImagesTimeoutSeconds int    `env:"IMAGES_TIMEOUT_SECONDS" envDefault:"10"`

	MaxImageSizeMB int `env:"OPINIONS_MAX_IMAGE_SIZE_MB" envDefault:"5"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load opinions config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate opinions config: %w", err)
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
		return fmt.Errorf("OPINIONS_DB_NAME is required")
	}
	switch c.BlobStore {
	case BlobStoreHTTP:
		if c.ImagesServiceURL == "" {
			return fmt.Errorf("IMAGES_SERVICE_URL is required when OPINIONS_BLOB_STORE=%s", BlobStoreHTTP)
		}
	case BlobStoreMemory:
	default:
		return fmt.Errorf("OPINIONS_BLOB_STORE must be %q or %q, got %q", BlobStoreHTTP, BlobStoreMemory, c.BlobStore)
	}
	if c.MaxImageSizeMB < 1 {
		return fmt.Errorf("OPINIONS_MAX_IMAGE_SIZE_MB must be positive, got %d", c.MaxImageSizeMB)
	}
	return nil
}

// ImagesTimeout bounds one call to the images service.
func (c *Config) ImagesTimeout() time.Duration {
	return time.Duration(c.ImagesTimeoutSeconds) * time.Second
}

// MaxImageBytes is the largest accepted opinion image.
func (c *Config) MaxImageBytes() int64 {
	return int64(c.MaxImageSizeMB) << 20
}
