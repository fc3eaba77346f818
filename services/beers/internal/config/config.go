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

// Config holds all configuration for the beers service.
type Config struct {
	pkgconfig.Base

	// HTTP server
	HTTPPort int `env:"BEERS_HTTP_PORT" envDefault:"8001"`

	PostgresDB string `env:"BEERS_DB_NAME" envDefault:"beers_db"`

	// Images service
	BlobStore            string `env:"BEERS_BLOB_STORE" envDefault:"http"`
	ImagesServiceURL     string `env:"IMAGES_SERVICE_URL" envDefault:"http://localhost:8005"`
	ImagesTimeoutSeconds int    `env:"IMAGES_TIMEOUT_SECONDS" envDefault:"10"`
	TempBeerImageURI     string `env:"TEMP_BEER_IMAGE_URI" envDefault:"http://localhost:8005/files/Beers/temp.jpg"`

	// Upload limit for beer images.
	MaxImageSizeMB int `env:"BEERS_MAX_IMAGE_SIZE_MB" envDefault:"5"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load beers config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate beers config: %w", err)
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
		return fmt.Errorf("BEERS_DB_NAME is required")
	}
	switch c.BlobStore {
	case BlobStoreHTTP:
		if c.ImagesServiceURL == "" {
			return fmt.Errorf("IMAGES_SERVICE_URL is required when BEERS_BLOB_STORE=%s", BlobStoreHTTP)
		}
	case BlobStoreMemory:
	default:
		return fmt.Errorf("BEERS_BLOB_STORE must be %q or %q, got %q", BlobStoreHTTP, BlobStoreMemory, c.BlobStore)
	}
	if c.TempBeerImageURI == "" {
		return fmt.Errorf("TEMP_BEER_IMAGE_URI is required")
	}
	if c.MaxImageSizeMB < 1 {
		return fmt.Errorf("BEERS_MAX_IMAGE_SIZE_MB must be positive, got %d", c.MaxImageSizeMB)
	}
	return nil
}

// ImagesTimeout bounds one call to the images service.
func (c *Config) ImagesTimeout() time.Duration {
	return time.Duration(c.ImagesTimeoutSeconds) * time.Second
}

// MaxImageBytes is the largest accepted image upload.
func (c *Config) MaxImageBytes() int64 {
	return int64(c.MaxImageSizeMB) << 20
}
