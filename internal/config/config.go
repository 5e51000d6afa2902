// Package config loads and validates the portprobe configuration file.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/scanner"
	"github.com/anstrom/portprobe/internal/targets"
	"github.com/anstrom/portprobe/internal/workers"
)

const (
	configDirPerm  = 0750
	configFilePerm = 0600

	maxConcurrency = 1024
)

// Config represents the complete portprobe configuration
type Config struct {
	// Scanning configuration
	Scanning ScanningConfig `yaml:"scanning" json:"scanning"`

	// API configuration
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	Logging logging.Config `yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ScanningConfig holds probe engine settings
type ScanningConfig struct {
	// Maximum probes in flight per batch
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// TCP connect timeout
	TCPTimeout time.Duration `yaml:"tcp_timeout" json:"tcp_timeout"`

	// Banner read timeout after a successful connect
	BannerTimeout time.Duration `yaml:"banner_timeout" json:"banner_timeout"`

	// UDP reply timeout
	UDPTimeout time.Duration `yaml:"udp_timeout" json:"udp_timeout"`

	// Expansion limits
	MaxHosts int `yaml:"max_hosts" json:"max_hosts"`
	MaxPorts int `yaml:"max_ports" json:"max_ports"`

	// Probe starts per second within one batch (0 = unlimited)
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Listen address
	Host string `yaml:"host" json:"host"`

	// Listen port
	Port int `yaml:"port" json:"port"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`

	// Maximum request body size in bytes
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size"`

	// Maximum targets per scan request (0 = unlimited)
	MaxBatchSize int `yaml:"max_batch_size" json:"max_batch_size"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// API key authentication
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Per-client request rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
}

// AuthConfig holds API key settings. Keys are stored as bcrypt hashes only.
type AuthConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	KeyHashes []string `yaml:"key_hashes" json:"key_hashes"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Scanning: ScanningConfig{
			Concurrency:   workers.DefaultSize,
			TCPTimeout:    probe.DefaultTCPTimeout,
			BannerTimeout: probe.DefaultBannerTimeout,
			UDPTimeout:    probe.DefaultUDPTimeout,
			MaxHosts:      targets.DefaultMaxHosts,
			MaxPorts:      targets.DefaultMaxPorts,
			RateLimit:     0,
		},
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   5 * time.Minute,
			IdleTimeout:    60 * time.Second,
			MaxRequestSize: 1024 * 1024, // 1MB
			MaxBatchSize:   0,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-Request-ID"},
			},
			Auth: AuthConfig{Enabled: false},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				Burst:             20,
			},
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load loads configuration from a file on top of the defaults. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder serves both.
	if err := yaml.Unmarshal(data, config); err != nil {
		format := "YAML"
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = "JSON"
		}
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse %s config", format), err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every section and returns the first offending field.
func (c *Config) Validate() error {
	if err := c.Scanning.validate(); err != nil {
		return err
	}
	if err := c.API.validate(); err != nil {
		return err
	}
	if err := validateLogging(c.Logging); err != nil {
		return err
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.ErrConfigInvalid("metrics.path", c.Metrics.Path)
	}
	return nil
}

func (s ScanningConfig) validate() error {
	if s.Concurrency <= 0 || s.Concurrency > maxConcurrency {
		return errors.ErrConfigInvalid("scanning.concurrency", s.Concurrency)
	}
	if s.TCPTimeout <= 0 {
		return errors.ErrConfigInvalid("scanning.tcp_timeout", s.TCPTimeout)
	}
	if s.BannerTimeout <= 0 {
		return errors.ErrConfigInvalid("scanning.banner_timeout", s.BannerTimeout)
	}
	if s.UDPTimeout <= 0 {
		return errors.ErrConfigInvalid("scanning.udp_timeout", s.UDPTimeout)
	}
	if s.MaxHosts <= 0 {
		return errors.ErrConfigInvalid("scanning.max_hosts", s.MaxHosts)
	}
	if s.MaxPorts <= 0 || s.MaxPorts > 65535 {
		return errors.ErrConfigInvalid("scanning.max_ports", s.MaxPorts)
	}
	if s.RateLimit < 0 {
		return errors.ErrConfigInvalid("scanning.rate_limit", s.RateLimit)
	}
	return nil
}

func (a APIConfig) validate() error {
	if a.Host == "" {
		return errors.ErrConfigMissing("api.host")
	}
	if a.Port <= 0 || a.Port > 65535 {
		return errors.ErrConfigInvalid("api.port", a.Port)
	}
	if a.MaxRequestSize <= 0 {
		return errors.ErrConfigInvalid("api.max_request_size", a.MaxRequestSize)
	}
	if a.MaxBatchSize < 0 {
		return errors.ErrConfigInvalid("api.max_batch_size", a.MaxBatchSize)
	}
	if a.Auth.Enabled {
		if len(a.Auth.KeyHashes) == 0 {
			return errors.ErrConfigMissing("api.auth.key_hashes")
		}
		for i, h := range a.Auth.KeyHashes {
			if _, err := bcrypt.Cost([]byte(h)); err != nil {
				return errors.ErrConfigInvalid(fmt.Sprintf("api.auth.key_hashes[%d]", i), "not a bcrypt hash")
			}
		}
	}
	if a.RateLimit.Enabled {
		if a.RateLimit.RequestsPerSecond <= 0 {
			return errors.ErrConfigInvalid("api.rate_limit.requests_per_second", a.RateLimit.RequestsPerSecond)
		}
		if a.RateLimit.Burst <= 0 {
			return errors.ErrConfigInvalid("api.rate_limit.burst", a.RateLimit.Burst)
		}
	}
	return nil
}

func validateLogging(l logging.Config) error {
	switch l.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return errors.ErrConfigInvalid("logging.level", l.Level)
	}
	switch l.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return errors.ErrConfigInvalid("logging.format", l.Format)
	}
	return nil
}

// EngineConfig translates the scanning section into engine settings.
func (c *Config) EngineConfig() scanner.Config {
	return scanner.Config{
		Concurrency: c.Scanning.Concurrency,
		MaxHosts:    c.Scanning.MaxHosts,
		MaxPorts:    c.Scanning.MaxPorts,
		RateLimit:   c.Scanning.RateLimit,
		Probe: probe.Config{
			TCPTimeout:    c.Scanning.TCPTimeout,
			BannerTimeout: c.Scanning.BannerTimeout,
			UDPTimeout:    c.Scanning.UDPTimeout,
		},
	}
}

// GetAPIAddress returns the full API listen address
func (c *Config) GetAPIAddress() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}
