package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantErr  bool
		wantCode errors.ErrorCode
		check    func(t *testing.T, c *Config)
	}{
		{
			name: "valid yaml config",
			file: "config.yaml",
			content: `
scanning:
  concurrency: 50
  tcp_timeout: 2s
  udp_timeout: 750ms
api:
  port: 9090
logging:
  level: debug
  format: json
`,
			check: func(t *testing.T, c *Config) {
				if c.Scanning.Concurrency != 50 {
					t.Errorf("concurrency = %d, want 50", c.Scanning.Concurrency)
				}
				if c.Scanning.TCPTimeout != 2*time.Second {
					t.Errorf("tcp_timeout = %v, want 2s", c.Scanning.TCPTimeout)
				}
				if c.Scanning.UDPTimeout != 750*time.Millisecond {
					t.Errorf("udp_timeout = %v, want 750ms", c.Scanning.UDPTimeout)
				}
				if c.Scanning.BannerTimeout != 500*time.Millisecond {
					t.Errorf("banner_timeout should keep its default, got %v", c.Scanning.BannerTimeout)
				}
				if c.API.Port != 9090 {
					t.Errorf("port = %d, want 9090", c.API.Port)
				}
				if c.Logging.Format != logging.FormatJSON {
					t.Errorf("format = %s, want json", c.Logging.Format)
				}
			},
		},
		{
			name: "valid json config",
			file: "config.json",
			content: `{
				"scanning": {"concurrency": 5, "max_ports": 100},
				"metrics": {"enabled": false}
			}`,
			check: func(t *testing.T, c *Config) {
				if c.Scanning.Concurrency != 5 || c.Scanning.MaxPorts != 100 {
					t.Errorf("unexpected scanning section: %+v", c.Scanning)
				}
				if c.Metrics.Enabled {
					t.Error("metrics should be disabled")
				}
			},
		},
		{
			name:     "invalid yaml syntax",
			file:     "config.yaml",
			content:  "scanning:\n  concurrency: [oops\n",
			wantErr:  true,
			wantCode: errors.CodeConfiguration,
		},
		{
			name:     "invalid json syntax",
			file:     "config.json",
			content:  `{"scanning": {"concurrency": [5}}`,
			wantErr:  true,
			wantCode: errors.CodeConfiguration,
		},
		{
			name:     "invalid value",
			file:     "config.yaml",
			content:  "scanning:\n  concurrency: 0\n",
			wantErr:  true,
			wantCode: errors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			cfg, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if got := errors.GetCode(err); got != tt.wantCode {
					t.Errorf("error code = %s, want %s (%v)", got, tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scanning.Concurrency != 20 {
		t.Errorf("expected default concurrency 20, got %d", cfg.Scanning.Concurrency)
	}

	cfg, err = Load("")
	if err != nil || cfg == nil {
		t.Fatalf("empty path should return defaults, got %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Scanning.TCPTimeout != time.Second {
		t.Errorf("tcp timeout = %v", cfg.Scanning.TCPTimeout)
	}
	if cfg.Scanning.UDPTimeout != 1500*time.Millisecond {
		t.Errorf("udp timeout = %v", cfg.Scanning.UDPTimeout)
	}
	if cfg.Scanning.MaxHosts != 256 || cfg.Scanning.MaxPorts != 1000 {
		t.Errorf("unexpected limits: %+v", cfg.Scanning)
	}
	if cfg.GetAPIAddress() != "127.0.0.1:8080" {
		t.Errorf("api address = %s", cfg.GetAPIAddress())
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %s", cfg.Metrics.Path)
	}
}

func TestValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"negative concurrency", func(c *Config) { c.Scanning.Concurrency = -1 }, "scanning.concurrency"},
		{"zero tcp timeout", func(c *Config) { c.Scanning.TCPTimeout = 0 }, "scanning.tcp_timeout"},
		{"zero udp timeout", func(c *Config) { c.Scanning.UDPTimeout = 0 }, "scanning.udp_timeout"},
		{"too many ports", func(c *Config) { c.Scanning.MaxPorts = 70000 }, "scanning.max_ports"},
		{"negative rate limit", func(c *Config) { c.Scanning.RateLimit = -1 }, "scanning.rate_limit"},
		{"missing host", func(c *Config) { c.API.Host = "" }, "api.host"},
		{"bad port", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"negative batch size", func(c *Config) { c.API.MaxBatchSize = -5 }, "api.max_batch_size"},
		{"auth without keys", func(c *Config) { c.API.Auth.Enabled = true }, "api.auth.key_hashes"},
		{"auth with plaintext key", func(c *Config) {
			c.API.Auth = AuthConfig{Enabled: true, KeyHashes: []string{string(hash), "plaintext"}}
		}, "api.auth.key_hashes[1]"},
		{"rate limit without rps", func(c *Config) {
			c.API.RateLimit = RateLimitConfig{Enabled: true, Burst: 1}
		}, "api.rate_limit.requests_per_second"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var cfgErr *errors.ConfigError
			if !asConfigError(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}

	t.Run("auth with bcrypt hashes", func(t *testing.T) {
		cfg := Default()
		cfg.API.Auth = AuthConfig{Enabled: true, KeyHashes: []string{string(hash)}}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portprobe.yaml")

	cfg := Default()
	cfg.Scanning.Concurrency = 64
	cfg.Scanning.UDPTimeout = 3 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Scanning.Concurrency != 64 || loaded.Scanning.UDPTimeout != 3*time.Second {
		t.Errorf("round trip lost values: %+v", loaded.Scanning)
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Scanning.RateLimit = 250

	ec := cfg.EngineConfig()
	if ec.Concurrency != 20 || ec.MaxHosts != 256 || ec.MaxPorts != 1000 {
		t.Errorf("unexpected engine config: %+v", ec)
	}
	if ec.RateLimit != 250 {
		t.Errorf("rate limit = %v", ec.RateLimit)
	}
	if ec.Probe.BannerTimeout != 500*time.Millisecond {
		t.Errorf("banner timeout = %v", ec.Probe.BannerTimeout)
	}
}

func asConfigError(err error, target **errors.ConfigError) bool {
	ce, ok := err.(*errors.ConfigError)
	if ok {
		*target = ce
	}
	return ok
}
