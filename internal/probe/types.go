// Package probe implements the per-target network probes. A probe makes a
// single protocol specific attempt against one target and classifies the
// outcome; failures are recorded on the result and never returned as errors.
package probe

import (
	"time"

	"github.com/anstrom/portprobe/internal/targets"
)

// State is the classified outcome of a probe.
type State string

const (
	StateOpen         State = "open"
	StateClosed       State = "closed"
	StateFiltered     State = "filtered"
	StateOpenFiltered State = "open|filtered"
	StateError        State = "error"
)

// Result is the verdict for a single target.
type Result struct {
	IP        string           `json:"ip"`
	Port      int              `json:"port"`
	Protocol  targets.Protocol `json:"protocol"`
	State     State            `json:"state"`
	Service   string           `json:"service"`
	Banner    string           `json:"banner,omitempty"`
	Error     string           `json:"error,omitempty"`
	RTTMillis int64            `json:"rtt_ms"`
}

// Target returns the target the result was produced for.
func (r Result) Target() targets.Target {
	return targets.Target{IP: r.IP, Port: r.Port, Protocol: r.Protocol}
}

const (
	DefaultTCPTimeout    = 1 * time.Second
	DefaultBannerTimeout = 500 * time.Millisecond
	DefaultUDPTimeout    = 1500 * time.Millisecond
)

// Config holds the probe timeouts.
type Config struct {
	TCPTimeout    time.Duration `yaml:"tcp_timeout" json:"tcp_timeout"`
	BannerTimeout time.Duration `yaml:"banner_timeout" json:"banner_timeout"`
	UDPTimeout    time.Duration `yaml:"udp_timeout" json:"udp_timeout"`
}

// DefaultConfig returns the standard probe timeouts.
func DefaultConfig() Config {
	return Config{
		TCPTimeout:    DefaultTCPTimeout,
		BannerTimeout: DefaultBannerTimeout,
		UDPTimeout:    DefaultUDPTimeout,
	}
}

// MaxTimeout is the longest a single probe can block.
func (c Config) MaxTimeout() time.Duration {
	tcp := c.TCPTimeout + c.BannerTimeout
	if c.UDPTimeout > tcp {
		return c.UDPTimeout
	}
	return tcp
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TCPTimeout <= 0 {
		c.TCPTimeout = d.TCPTimeout
	}
	if c.BannerTimeout <= 0 {
		c.BannerTimeout = d.BannerTimeout
	}
	if c.UDPTimeout <= 0 {
		c.UDPTimeout = d.UDPTimeout
	}
	return c
}
