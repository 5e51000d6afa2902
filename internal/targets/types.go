// Package targets turns user supplied address and port specifications into a
// bounded list of concrete scan targets.
package targets

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/anstrom/portprobe/internal/errors"
)

// Protocol is the transport a target is probed over.
type Protocol uint8

const (
	// TCP is the zero value so targets that omit a protocol are probed over TCP.
	TCP Protocol = iota
	UDP
)

// String returns the lowercase wire name of the protocol.
func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(p))
	}
}

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	return p == TCP || p == UDP
}

// ParseProtocol parses "tcp" or "udp", case-insensitively. An empty string
// selects TCP.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return TCP, errors.ErrInvalidFormat(s, fmt.Errorf("unsupported protocol %q", s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Protocol) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid protocol %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Protocol) UnmarshalText(text []byte) error {
	parsed, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Target is one (address, port, protocol) tuple to probe.
type Target struct {
	IP       string   `json:"ip" yaml:"ip"`
	Port     int      `json:"port" yaml:"port"`
	Protocol Protocol `json:"protocol" yaml:"protocol"`
}

// Address returns the dialable host:port form of the target.
func (t Target) Address() string {
	return net.JoinHostPort(t.IP, strconv.Itoa(t.Port))
}

// String renders the target as ip:port/protocol.
func (t Target) String() string {
	return t.Address() + "/" + t.Protocol.String()
}

// Expansion is the result of expanding an address and port specification.
type Expansion struct {
	Total   int      `json:"total"`
	Targets []Target `json:"targets"`
}
