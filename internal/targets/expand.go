package targets

import (
	stderrors "errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/anstrom/portprobe/internal/errors"
)

const (
	// DefaultMaxHosts bounds the addresses a single IP specification may expand to.
	DefaultMaxHosts = 256
	// DefaultMaxPorts bounds the distinct ports a single port specification may yield.
	DefaultMaxPorts = 1000

	minPort = 1
	maxPort = 65535

	ipv4Bits = 32
)

// Expander parses specifications within fixed size limits.
type Expander struct {
	MaxHosts int
	MaxPorts int
}

// NewExpander returns an expander with the given limits. Non-positive limits
// fall back to the defaults.
func NewExpander(maxHosts, maxPorts int) *Expander {
	if maxHosts <= 0 {
		maxHosts = DefaultMaxHosts
	}
	if maxPorts <= 0 {
		maxPorts = DefaultMaxPorts
	}
	return &Expander{MaxHosts: maxHosts, MaxPorts: maxPorts}
}

var defaultExpander = NewExpander(DefaultMaxHosts, DefaultMaxPorts)

// ParseIPRange expands an IP specification using the default limits.
func ParseIPRange(spec string) ([]string, error) {
	return defaultExpander.ParseIPRange(spec)
}

// ParsePortRange expands a port specification using the default limits.
func ParsePortRange(spec string) ([]int, error) {
	return defaultExpander.ParsePortRange(spec)
}

// Expand builds the target list using the default limits.
func Expand(ipSpec, portSpec, protocol string) (*Expansion, error) {
	return defaultExpander.Expand(ipSpec, portSpec, protocol)
}

// Expand parses both specifications and returns one target per (ip, port)
// pair, address-major. Nothing is returned on error.
func (e *Expander) Expand(ipSpec, portSpec, protocol string) (*Expansion, error) {
	if strings.TrimSpace(ipSpec) == "" || strings.TrimSpace(portSpec) == "" {
		return nil, errors.ErrInvalidFormat("", fmt.Errorf("IP range and port range are required"))
	}

	proto, err := ParseProtocol(protocol)
	if err != nil {
		return nil, err
	}

	ips, err := e.ParseIPRange(ipSpec)
	if err != nil {
		return nil, err
	}

	ports, err := e.ParsePortRange(portSpec)
	if err != nil {
		return nil, err
	}

	list := make([]Target, 0, len(ips)*len(ports))
	for _, ip := range ips {
		for _, port := range ports {
			list = append(list, Target{IP: ip, Port: port, Protocol: proto})
		}
	}

	return &Expansion{Total: len(list), Targets: list}, nil
}

// ParseIPRange expands a CIDR block, a start-end range or a single IPv4
// address into an ordered list of addresses.
func (e *Expander) ParseIPRange(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)

	switch {
	case strings.Contains(spec, "/"):
		return e.parseCIDR(spec)
	case strings.Contains(spec, "-"):
		return e.parseHyphenRange(spec)
	default:
		addr, err := parseIPv4(spec)
		if err != nil {
			return nil, errors.ErrInvalidFormat(spec, err)
		}
		return []string{addr.String()}, nil
	}
}

func (e *Expander) parseCIDR(spec string) ([]string, error) {
	prefix, err := netip.ParsePrefix(spec)
	if err != nil {
		return nil, errors.ErrInvalidFormat(spec, err)
	}
	if !prefix.Addr().Is4() {
		return nil, errors.ErrInvalidFormat(spec, fmt.Errorf("only IPv4 networks are supported"))
	}
	prefix = prefix.Masked()

	hostBits := ipv4Bits - prefix.Bits()
	size := uint64(1) << hostBits
	if size > uint64(e.MaxHosts) {
		return nil, errors.ErrRangeTooLarge(spec, e.MaxHosts)
	}

	first := ipv4ToUint(prefix.Addr())
	last := first + uint32(size-1)

	// Network and broadcast addresses are not hosts, except on /31 and /32
	// where every address is usable.
	if hostBits > 1 {
		first++
		last--
	}

	return enumerate(first, last), nil
}

func (e *Expander) parseHyphenRange(spec string) ([]string, error) {
	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return nil, errors.ErrInvalidFormat(spec, fmt.Errorf("expected start-end"))
	}

	start, err := parseIPv4(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, errors.ErrInvalidFormat(spec, err)
	}
	end, err := parseIPv4(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.ErrInvalidFormat(spec, err)
	}

	lo, hi := ipv4ToUint(start), ipv4ToUint(end)
	if int64(hi)-int64(lo) > int64(e.MaxHosts-1) {
		return nil, errors.ErrRangeTooLarge(spec, e.MaxHosts)
	}
	if lo > hi {
		return []string{}, nil
	}

	return enumerate(lo, hi), nil
}

// ParsePortRange expands a comma separated list of ports and start-end ranges
// into a sorted set. Values outside 1-65535 are dropped silently.
func (e *Expander) ParsePortRange(spec string) ([]int, error) {
	seen := make([]bool, maxPort+1)
	count := 0

	mark := func(lo, hi int) {
		if lo < minPort {
			lo = minPort
		}
		if hi > maxPort {
			hi = maxPort
		}
		for p := lo; p <= hi; p++ {
			if !seen[p] {
				seen[p] = true
				count++
			}
		}
	}

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		lo, hi, err := parsePortToken(token)
		if err != nil {
			return nil, errors.ErrInvalidFormat(token, err)
		}
		mark(lo, hi)
	}

	if count > e.MaxPorts {
		return nil, errors.ErrTooManyPorts(count, e.MaxPorts)
	}

	ports := make([]int, 0, count)
	for p := minPort; p <= maxPort; p++ {
		if seen[p] {
			ports = append(ports, p)
		}
	}
	return ports, nil
}

// parsePortToken returns the inclusive bounds of a single port or a range.
// A leading minus sign belongs to the number, so "-5" is the value -5.
func parsePortToken(token string) (int, int, error) {
	if v, err := strconv.Atoi(token); err == nil {
		return v, v, nil
	}

	idx := strings.Index(token[1:], "-")
	if idx < 0 {
		return 0, 0, fmt.Errorf("invalid port %q", token)
	}
	idx++

	start, err := strconv.Atoi(strings.TrimSpace(token[:idx]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start in %q", token)
	}
	end, err := strconv.Atoi(strings.TrimSpace(token[idx+1:]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end in %q", token)
	}
	return start, end, nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if !addr.Is4() {
		return netip.Addr{}, stderrors.New("not an IPv4 address")
	}
	return addr, nil
}

func ipv4ToUint(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func uintToIPv4(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func enumerate(first, last uint32) []string {
	if first > last {
		return []string{}
	}
	out := make([]string, 0, last-first+1)
	for v := first; ; v++ {
		out = append(out, uintToIPv4(v).String())
		if v == last {
			break
		}
	}
	return out
}
