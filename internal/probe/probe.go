package probe

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/anstrom/portprobe/internal/services"
	"github.com/anstrom/portprobe/internal/targets"
)

const (
	readBufferSize = 1024
	udpBannerHex   = 20
)

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober runs TCP and UDP probes with fixed timeouts.
type Prober struct {
	cfg    Config
	dialer Dialer
}

// New creates a prober that dials through the system network stack.
func New(cfg Config) *Prober {
	return NewWithDialer(cfg, &net.Dialer{})
}

// NewWithDialer creates a prober that dials through d.
func NewWithDialer(cfg Config, d Dialer) *Prober {
	return &Prober{cfg: cfg.withDefaults(), dialer: d}
}

// Config returns the effective probe configuration.
func (p *Prober) Config() Config {
	return p.cfg
}

type probeFunc func(p *Prober, ctx context.Context, t targets.Target) Result

// probes maps each protocol to its probe algorithm.
var probes = [...]probeFunc{
	targets.TCP: (*Prober).probeTCP,
	targets.UDP: (*Prober).probeUDP,
}

// Probe runs the protocol specific probe for t. It always returns a result.
func (p *Prober) Probe(ctx context.Context, t targets.Target) Result {
	if !t.Protocol.Valid() {
		res := newResult(t, StateError)
		res.Error = fmt.Sprintf("unsupported protocol %s", t.Protocol)
		return res
	}
	return probes[t.Protocol](p, ctx, t)
}

func newResult(t targets.Target, state State) Result {
	return Result{
		IP:       t.IP,
		Port:     t.Port,
		Protocol: t.Protocol,
		State:    state,
		Service:  services.Lookup(t.Protocol.String(), t.Port),
	}
}

func (p *Prober) probeTCP(ctx context.Context, t targets.Target) Result {
	res := newResult(t, StateClosed)

	dialCtx, cancel := context.WithTimeout(ctx, p.cfg.TCPTimeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(dialCtx, "tcp4", t.Address())
	res.RTTMillis = time.Since(start).Milliseconds()
	if err != nil {
		res.State = classifyTCPDialError(err)
		if res.State == StateError {
			res.Error = err.Error()
		}
		return res
	}
	defer conn.Close()

	res.State = StateOpen
	res.Banner = grabBanner(conn, p.cfg.BannerTimeout)
	return res
}

func (p *Prober) probeUDP(ctx context.Context, t targets.Target) Result {
	res := newResult(t, StateOpenFiltered)

	conn, err := p.dialer.DialContext(ctx, "udp4", t.Address())
	if err != nil {
		return classifyUDPError(res, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(p.cfg.UDPTimeout)); err != nil {
		return classifyUDPError(res, err)
	}

	start := time.Now()
	if _, err := conn.Write(udpPayload(t.Port)); err != nil {
		return classifyUDPError(res, err)
	}

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	res.RTTMillis = time.Since(start).Milliseconds()
	if n > 0 {
		res.State = StateOpen
		res.Banner = hexFingerprint(buf[:n])
		return res
	}
	if err != nil {
		return classifyUDPError(res, err)
	}
	return res
}

func classifyUDPError(res Result, err error) Result {
	switch {
	case isTimeout(err):
		// No reply is ambiguous for UDP; keep the default state.
	case isRefused(err):
		res.State = StateClosed
	default:
		res.State = StateError
		res.Error = err.Error()
	}
	return res
}

func hexFingerprint(data []byte) string {
	s := hex.EncodeToString(data)
	if len(s) > udpBannerHex {
		s = s[:udpBannerHex]
	}
	return s
}
