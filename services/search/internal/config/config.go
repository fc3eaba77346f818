package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
)

// Search engines.
const (
	EngineMemory        = "memory"
	EngineElasticsearch = "elasticsearch"
)

// Config holds all configuration for the search service.
type Config struct {
	pkgconfig.Base

	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8006"`

	SearchEngine       string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"hoppyhub_beers"`

	// Beers service, read during a reindex.
	BeersServiceURL    string `env:"BEERS_SERVICE_URL" envDefault:"http://localhost:8001"`
	BeersClientTimeout int    `env:"BEERS_CLIENT_TIMEOUT_SECONDS" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate search config: %w", err)
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
	switch c.SearchEngine {
	case EngineMemory:
	case EngineElasticsearch:
		if !isHTTPURL(c.ElasticsearchURL) {
			return fmt.Errorf("ELASTICSEARCH_URL must be an http(s) URL, got %q", c.ElasticsearchURL)
		}
		if c.ElasticsearchIndex == "" {
			return fmt.Errorf("ELASTICSEARCH_INDEX is required")
		}
	default:
		return fmt.Errorf("SEARCH_ENGINE must be %q or %q, got %q", EngineMemory, EngineElasticsearch, c.SearchEngine)
	}
	if !isHTTPURL(c.BeersServiceURL) {
		return fmt.Errorf("BEERS_SERVICE_URL must be an http(s) URL, got %q", c.BeersServiceURL)
	}
	if c.BeersClientTimeout <= 0 {
		return fmt.Errorf("BEERS_CLIENT_TIMEOUT_SECONDS must be positive, got %d", c.BeersClientTimeout)
	}
	return nil
}

// BeersTimeout bounds a single request to the beers service.
func (c *Config) BeersTimeout() time.Duration {
	return time.Duration(c.BeersClientTimeout) * time.Second
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
