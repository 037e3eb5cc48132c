package server

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/emojify/server/internal/fetch"
	"github.com/hazyhaar/emojify/shield"
)

// Config configures the emojify service and its listeners.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr serves /metrics on a separate listener. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// MCPTransport exposes the emojify tools over MCP. "stdio" or empty.
	MCPTransport string `yaml:"mcp_transport"`

	// Fetch settings for the outbound GET.
	Fetch fetch.Config `yaml:"fetch"`

	// BlockPrivate refuses URLs that resolve to private or loopback
	// addresses, including redirect targets.
	BlockPrivate bool `yaml:"block_private"`

	// RateLimit applies a per-IP token bucket to the public routes.
	RateLimit shield.RateLimitConfig `yaml:"rate_limit"`
}

func (c *Config) defaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 10 * 1024 * 1024
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "emojify/1.0"
	}
}

// Addr is the listen address of the public HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Port)
	}
	switch c.MCPTransport {
	case "", "stdio":
	default:
		return fmt.Errorf("server: unknown mcp transport %q", c.MCPTransport)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("server: negative fetch timeout %s", c.Fetch.Timeout)
	}
	return nil
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadConfigFile reads a YAML config file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
