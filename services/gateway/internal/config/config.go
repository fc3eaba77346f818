package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	pkgconfig "github.com/TomWia9/HoppyHub-sub002/pkg/config"
)

// Rate limiter backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config holds all configuration for the API gateway.
type Config struct {
	pkgconfig.Base

	HTTPPort int `env:"GATEWAY_HTTP_PORT" envDefault:"8000"`

	// Backend service URLs
	BeersServiceURL     string `env:"BEERS_SERVICE_URL" envDefault:"http://localhost:8001"`
	OpinionsServiceURL  string `env:"OPINIONS_SERVICE_URL" envDefault:"http://localhost:8002"`
	FavoritesServiceURL string `env:"FAVORITES_SERVICE_URL" envDefault:"http://localhost:8003"`
	UsersServiceURL     string `env:"USERS_SERVICE_URL" envDefault:"http://localhost:8004"`
	ImagesServiceURL    string `env:"IMAGES_SERVICE_URL" envDefault:"http://localhost:8005"`
	SearchServiceURL    string `env:"SEARCH_SERVICE_URL" envDefault:"http://localhost:8006"`

	// Proxy transport
	ProxyDialTimeoutSecs     int `env:"PROXY_DIAL_TIMEOUT_SECONDS" envDefault:"5"`
	ProxyResponseTimeoutSecs int `env:"PROXY_RESPONSE_TIMEOUT_SECONDS" envDefault:"30"`
	ProxyMaxIdleConns        int `env:"PROXY_MAX_IDLE_CONNS" envDefault:"100"`

	// Rate limiting
	RateLimitStore string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RateLimitRPS   int    `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST" envDefault:"200"`

	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16" envSeparator:","`
	PprofEnabled        bool     `env:"PPROF_ENABLED" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate gateway config: %w", err)
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
	for name, raw := range c.Upstreams() {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s service URL must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	if c.ProxyDialTimeoutSecs <= 0 || c.ProxyResponseTimeoutSecs <= 0 {
		return fmt.Errorf("proxy timeouts must be positive")
	}
	if c.RateLimitStore != RateLimitMemory && c.RateLimitStore != RateLimitRedis {
		return fmt.Errorf("RATE_LIMIT_STORE must be %q or %q, got %q", RateLimitMemory, RateLimitRedis, c.RateLimitStore)
	}
	if c.RateLimitRPS < 1 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	for _, cidr := range c.MetricsAllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid METRICS_ALLOWED_CIDRS entry %q: %w", cidr, err)
		}
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" {
			return fmt.Errorf("invalid CORS_ALLOWED_ORIGINS entry %q", origin)
		}
	}
	return nil
}

// Upstreams maps each backend name to its base URL.
func (c *Config) Upstreams() map[string]string {
	return map[string]string{
		"beers":     c.BeersServiceURL,
		"opinions":  c.OpinionsServiceURL,
		"favorites": c.FavoritesServiceURL,
		"users":     c.UsersServiceURL,
		"images":    c.ImagesServiceURL,
		"search":    c.SearchServiceURL,
	}
}

// ProxyDialTimeout bounds connecting to a backend.
func (c *Config) ProxyDialTimeout() time.Duration {
	return time.Duration(c.ProxyDialTimeoutSecs) * time.Second
}

// ProxyResponseTimeout bounds waiting for a backend's response headers.
func (c *Config) ProxyResponseTimeout() time.Duration {
	return time.Duration(c.ProxyResponseTimeoutSecs) * time.Second
}
