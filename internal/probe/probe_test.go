package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/portprobe/internal/targets"
)

type fakeDialer struct {
	err     error
	network string
	address string
}

func (f *fakeDialer) DialContext(_ context.Context, network, address string) (net.Conn, error) {
	f.network = network
	f.address = address
	return nil, f.err
}

func fastConfig() Config {
	return Config{
		TCPTimeout:    500 * time.Millisecond,
		BannerTimeout: 200 * time.Millisecond,
		UDPTimeout:    200 * time.Millisecond,
	}
}

func splitHostPort(t *testing.T, addr net.Addr) (string, int) {
	t.Helper()
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP.String(), a.Port
	case *net.UDPAddr:
		return a.IP.String(), a.Port
	}
	t.Fatalf("unexpected address type %T", addr)
	return "", 0
}

func TestProbeTCP_OpenWithBanner(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("SSH-2.0-OpenSSH_9.6\r\n"))
		time.Sleep(100 * time.Millisecond)
	}()

	ip, port := splitHostPort(t, ln.Addr())
	res := New(fastConfig()).Probe(context.Background(), targets.Target{IP: ip, Port: port})

	assert.Equal(t, StateOpen, res.State)
	assert.Equal(t, "SSH-2.0-OpenSSH_9.6", res.Banner)
	assert.Equal(t, ip, res.IP)
	assert.Equal(t, port, res.Port)
	assert.Equal(t, targets.TCP, res.Protocol)
	assert.Empty(t, res.Error)
}

func TestProbeTCP_OpenSilentService(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-done
	}()

	ip, port := splitHostPort(t, ln.Addr())
	res := New(fastConfig()).Probe(context.Background(), targets.Target{IP: ip, Port: port})

	assert.Equal(t, StateOpen, res.State)
	assert.Empty(t, res.Banner)
}

func TestProbeTCP_Closed(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	ip, port := splitHostPort(t, ln.Addr())
	require.NoError(t, ln.Close())

	res := New(fastConfig()).Probe(context.Background(), targets.Target{IP: ip, Port: port})

	assert.Equal(t, StateClosed, res.State)
	assert.Empty(t, res.Banner)
	assert.Empty(t, res.Error)
}

func TestProbeTCP_DialClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      State
		wantError bool
	}{
		{
			name: "timeout is filtered",
			err:  &net.OpError{Op: "dial", Net: "tcp4", Err: os.ErrDeadlineExceeded},
			want: StateFiltered,
		},
		{
			name: "refused is closed",
			err:  &net.OpError{Op: "dial", Net: "tcp4", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}},
			want: StateClosed,
		},
		{
			name: "host unreachable is closed",
			err:  &net.OpError{Op: "dial", Net: "tcp4", Err: &os.SyscallError{Syscall: "connect", Err: syscall.EHOSTUNREACH}},
			want: StateClosed,
		},
		{
			name: "network unreachable is closed",
			err:  &net.OpError{Op: "dial", Net: "tcp4", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ENETUNREACH}},
			want: StateClosed,
		},
		{
			name:      "anything else is an error",
			err:       errors.New("no buffer space available"),
			want:      StateError,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDialer{err: tt.err}
			res := NewWithDialer(fastConfig(), d).Probe(context.Background(),
				targets.Target{IP: "10.255.0.1", Port: 443})

			assert.Equal(t, tt.want, res.State)
			assert.Equal(t, "tcp4", d.network)
			assert.Equal(t, "10.255.0.1:443", d.address)
			assert.Equal(t, "HTTPS", res.Service)
			if tt.wantError {
				assert.NotEmpty(t, res.Error)
			} else {
				assert.Empty(t, res.Error)
			}
		})
	}
}

func TestProbeUDP_Reply(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 512)
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		received <- append([]byte(nil), buf[:n]...)
		_, _ = pc.WriteTo([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}, addr)
	}()

	ip, port := splitHostPort(t, pc.LocalAddr())
	res := New(fastConfig()).Probe(context.Background(), targets.Target{IP: ip, Port: port, Protocol: targets.UDP})

	assert.Equal(t, StateOpen, res.State)
	assert.Equal(t, "deadbeef000102030405", res.Banner)
	assert.Equal(t, targets.UDP, res.Protocol)

	select {
	case payload := <-received:
		assert.Equal(t, []byte{0x00}, payload)
	case <-time.After(time.Second):
		t.Fatal("listener never saw the probe")
	}
}

func TestProbeUDP_NoReply(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	ip, port := splitHostPort(t, pc.LocalAddr())
	res := New(fastConfig()).Probe(context.Background(), targets.Target{IP: ip, Port: port, Protocol: targets.UDP})

	assert.Equal(t, StateOpenFiltered, res.State)
	assert.Empty(t, res.Banner)
	assert.Empty(t, res.Error)
}

func TestProbeUDP_ClosedPort(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	ip, port := splitHostPort(t, pc.LocalAddr())
	require.NoError(t, pc.Close())

	res := New(fastConfig()).Probe(context.Background(), targets.Target{IP: ip, Port: port, Protocol: targets.UDP})

	// Port unreachable reporting depends on the platform, so both verdicts
	// are acceptable.
	assert.Contains(t, []State{StateClosed, StateOpenFiltered}, res.State)
}

func TestProbeUDP_DialError(t *testing.T) {
	d := &fakeDialer{err: errors.New("socket: too many open files")}
	res := NewWithDialer(fastConfig(), d).Probe(context.Background(),
		targets.Target{IP: "10.0.0.1", Port: 161, Protocol: targets.UDP})

	assert.Equal(t, StateError, res.State)
	assert.Equal(t, "udp4", d.network)
	assert.Equal(t, "SNMP", res.Service)
	assert.Contains(t, res.Error, "too many open files")
}

func TestProbe_InvalidProtocol(t *testing.T) {
	res := New(fastConfig()).Probe(context.Background(),
		targets.Target{IP: "10.0.0.1", Port: 22, Protocol: targets.Protocol(7)})

	assert.Equal(t, StateError, res.State)
	assert.Contains(t, res.Error, "unsupported protocol")
}

func TestConfigDefaults(t *testing.T) {
	p := New(Config{BannerTimeout: time.Second})
	cfg := p.Config()

	assert.Equal(t, DefaultTCPTimeout, cfg.TCPTimeout)
	assert.Equal(t, time.Second, cfg.BannerTimeout)
	assert.Equal(t, DefaultUDPTimeout, cfg.UDPTimeout)
	assert.Equal(t, 2*time.Second, cfg.MaxTimeout())
}

func TestFormatBanner(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"trims whitespace", []byte("  220 smtp ready \r\n"), "220 smtp ready"},
		{"drops invalid utf8", []byte{'H', 0xff, 'i', 0xfe}, "Hi"},
		{"truncates to 50 characters", []byte(strings.Repeat("a", 80)), strings.Repeat("a", 50)},
		{"counts characters not bytes", []byte(strings.Repeat("é", 60)), strings.Repeat("é", 50)},
		{"whitespace only", []byte("\r\n\r\n"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatBanner(tt.in))
		})
	}
}

func TestHexFingerprint(t *testing.T) {
	assert.Equal(t, "0102", hexFingerprint([]byte{1, 2}))
	assert.Len(t, hexFingerprint(make([]byte, 64)), 20)
}

func TestUDPPayloads(t *testing.T) {
	t.Run("dns", func(t *testing.T) {
		msg := new(dns.Msg)
		require.NoError(t, msg.Unpack(udpPayload(53)))
		require.Len(t, msg.Question, 1)
		assert.Equal(t, ".", msg.Question[0].Name)
		assert.Equal(t, dns.TypeNS, msg.Question[0].Qtype)
	})

	t.Run("ntp", func(t *testing.T) {
		payload := udpPayload(123)
		require.Len(t, payload, 48)
		assert.Equal(t, []byte{0xe3, 0x00, 0x04, 0xfa}, payload[:4])
	})

	t.Run("snmp", func(t *testing.T) {
		payload := udpPayload(161)
		decoded, err := (&gosnmp.GoSNMP{}).SnmpDecodePacket(payload)
		require.NoError(t, err)
		assert.Equal(t, gosnmp.Version2c, decoded.Version)
		assert.Equal(t, "public", decoded.Community)
		assert.Equal(t, gosnmp.GetRequest, decoded.PDUType)
	})

	t.Run("default", func(t *testing.T) {
		assert.Equal(t, []byte{0x00}, udpPayload(9999))
	})
}
