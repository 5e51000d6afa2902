package targets

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/portprobe/internal/errors"
)

func TestParseIPRange_CIDR(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{"class C", "192.168.1.0/24", 254, "192.168.1.1", "192.168.1.254"},
		{"non strict host bits", "192.168.1.77/24", 254, "192.168.1.1", "192.168.1.254"},
		{"/30", "10.0.0.4/30", 2, "10.0.0.5", "10.0.0.6"},
		{"/31 keeps both", "10.0.0.4/31", 2, "10.0.0.4", "10.0.0.5"},
		{"/32 single host", "10.0.0.9/32", 1, "10.0.0.9", "10.0.0.9"},
		{"surrounding space", "  172.16.0.0/28 ", 14, "172.16.0.1", "172.16.0.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ips, err := ParseIPRange(tt.spec)
			require.NoError(t, err)
			require.Len(t, ips, tt.wantLen)
			assert.Equal(t, tt.wantFirst, ips[0])
			assert.Equal(t, tt.wantLast, ips[len(ips)-1])
		})
	}
}

func TestParseIPRange_CIDRExcludesNetworkAndBroadcast(t *testing.T) {
	ips, err := ParseIPRange("10.1.2.0/24")
	require.NoError(t, err)
	assert.NotContains(t, ips, "10.1.2.0")
	assert.NotContains(t, ips, "10.1.2.255")

	for i, ip := range ips {
		assert.Equal(t, fmt.Sprintf("10.1.2.%d", i+1), ip)
	}
}

func TestParseIPRange_CIDRTooLarge(t *testing.T) {
	for _, spec := range []string{"10.0.0.0/23", "10.0.0.0/16", "0.0.0.0/0"} {
		_, err := ParseIPRange(spec)
		require.Error(t, err, spec)
		assert.True(t, errors.IsCode(err, errors.CodeRangeTooLarge), "%s: %v", spec, err)
	}
}

func TestParseIPRange_Hyphen(t *testing.T) {
	ips, err := ParseIPRange("10.0.0.250 - 10.0.1.5")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"10.0.0.250", "10.0.0.251", "10.0.0.252", "10.0.0.253", "10.0.0.254", "10.0.0.255",
		"10.0.1.0", "10.0.1.1", "10.0.1.2", "10.0.1.3", "10.0.1.4", "10.0.1.5",
	}, ips)
}

func TestParseIPRange_HyphenEveryAddressOnce(t *testing.T) {
	ips, err := ParseIPRange("192.168.0.0-192.168.0.255")
	require.NoError(t, err)
	require.Len(t, ips, 256)

	seen := make(map[string]bool)
	for i, ip := range ips {
		assert.Equal(t, fmt.Sprintf("192.168.0.%d", i), ip)
		assert.False(t, seen[ip], "duplicate %s", ip)
		seen[ip] = true
	}
}

func TestParseIPRange_HyphenEdges(t *testing.T) {
	ips, err := ParseIPRange("255.255.255.250-255.255.255.255")
	require.NoError(t, err)
	assert.Len(t, ips, 6)

	ips, err = ParseIPRange("10.0.0.9-10.0.0.1")
	require.NoError(t, err)
	assert.Empty(t, ips)

	_, err = ParseIPRange("10.0.0.0-10.0.1.0")
	assert.True(t, errors.IsCode(err, errors.CodeRangeTooLarge))
}

func TestParseIPRange_Single(t *testing.T) {
	ips, err := ParseIPRange(" 8.8.8.8 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"8.8.8.8"}, ips)
}

func TestParseIPRange_InvalidFormat(t *testing.T) {
	specs := []string{
		"",
		"not-an-ip",
		"10.0.0.1-10.0.0.2-10.0.0.3",
		"10.0.0.300",
		"10.0.0.1-bogus",
		"10.0.0.0/33",
		"2001:db8::1",
		"2001:db8::/120",
		"example.com",
	}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseIPRange(spec)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidFormat), "got %v", err)
		})
	}
}

func TestParsePortRange(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []int
	}{
		{"single", "22", []int{22}},
		{"list unsorted with dupes", "443,22,80,22", []int{22, 80, 443}},
		{"range", "20-25", []int{20, 21, 22, 23, 24, 25}},
		{"mixed overlapping", "80,78-81, 443 ", []int{78, 79, 80, 81, 443}},
		{"out of domain dropped", "70000,-5,22", []int{22}},
		{"zero dropped", "0,1", []int{1}},
		{"range clipped", "65530-70000", []int{65530, 65531, 65532, 65533, 65534, 65535}},
		{"negative start range", "-3-2", []int{1, 2}},
		{"reversed range empty", "30-20", []int{}},
		{"empty tokens ignored", "22,,80,", []int{22, 80}},
		{"spaces in range", "10 - 12", []int{10, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePortRange(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePortRange_Idempotent(t *testing.T) {
	specs := []string{"1-100,443,8080-8090", "70000,-5,22", "5,4,3,2,1"}
	for _, spec := range specs {
		first, err := ParsePortRange(spec)
		require.NoError(t, err)

		again, err := ParsePortRange(joinPorts(first))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParsePortRange_TooManyPorts(t *testing.T) {
	_, err := ParsePortRange("1-1001")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTooManyPorts))

	ports, err := ParsePortRange("1-1000")
	require.NoError(t, err)
	assert.Len(t, ports, 1000)

	// Duplicates count once.
	ports, err = ParsePortRange("1-600,1-600,500-1000")
	require.NoError(t, err)
	assert.Len(t, ports, 1000)

	// A huge range is clipped to the port domain before counting.
	_, err = ParsePortRange("1-999999999")
	assert.True(t, errors.IsCode(err, errors.CodeTooManyPorts))
}

func TestParsePortRange_InvalidFormat(t *testing.T) {
	for _, spec := range []string{"abc", "22,http", "5-", "-", "1-2-3", "80-x"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParsePortRange(spec)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidFormat), "got %v", err)
		})
	}
}

func TestExpand(t *testing.T) {
	exp, err := Expand("10.0.0.1-10.0.0.2", "22,80", "TCP")
	require.NoError(t, err)

	assert.Equal(t, 4, exp.Total)
	assert.Equal(t, []Target{
		{IP: "10.0.0.1", Port: 22, Protocol: TCP},
		{IP: "10.0.0.1", Port: 80, Protocol: TCP},
		{IP: "10.0.0.2", Port: 22, Protocol: TCP},
		{IP: "10.0.0.2", Port: 80, Protocol: TCP},
	}, exp.Targets)
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		ip, port string
		protocol string
		code     errors.ErrorCode
	}{
		{"empty ip", "", "22", "tcp", errors.CodeInvalidFormat},
		{"empty ports", "10.0.0.1", "  ", "tcp", errors.CodeInvalidFormat},
		{"bad protocol", "10.0.0.1", "22", "icmp", errors.CodeInvalidFormat},
		{"too many ports", "10.0.0.1", "1-2000", "tcp", errors.CodeTooManyPorts},
		{"range too large", "10.0.0.0/16", "22", "udp", errors.CodeRangeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := Expand(tt.ip, tt.port, tt.protocol)
			require.Error(t, err)
			assert.Nil(t, exp)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestExpand_DefaultsToTCP(t *testing.T) {
	exp, err := Expand("10.0.0.1", "53", "")
	require.NoError(t, err)
	require.Len(t, exp.Targets, 1)
	assert.Equal(t, TCP, exp.Targets[0].Protocol)
}

func TestExpander_CustomLimits(t *testing.T) {
	e := NewExpander(4, 3)

	_, err := e.ParseIPRange("10.0.0.0/29")
	assert.True(t, errors.IsCode(err, errors.CodeRangeTooLarge))

	ips, err := e.ParseIPRange("10.0.0.0/30")
	require.NoError(t, err)
	assert.Len(t, ips, 2)

	_, err = e.ParsePortRange("1-4")
	assert.True(t, errors.IsCode(err, errors.CodeTooManyPorts))

	d := NewExpander(0, -1)
	assert.Equal(t, DefaultMaxHosts, d.MaxHosts)
	assert.Equal(t, DefaultMaxPorts, d.MaxPorts)
}

func TestProtocol(t *testing.T) {
	p, err := ParseProtocol("UDP")
	require.NoError(t, err)
	assert.Equal(t, UDP, p)
	assert.Equal(t, "udp", p.String())

	_, err = ParseProtocol("sctp")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidFormat))

	assert.False(t, Protocol(9).Valid())
	_, err = Protocol(9).MarshalText()
	assert.Error(t, err)
}

func TestTargetJSON(t *testing.T) {
	data, err := json.Marshal(Target{IP: "10.0.0.1", Port: 161, Protocol: UDP})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ip":"10.0.0.1","port":161,"protocol":"udp"}`, string(data))

	var decoded Target
	require.NoError(t, json.Unmarshal([]byte(`{"ip":"10.0.0.2","port":22}`), &decoded))
	assert.Equal(t, TCP, decoded.Protocol)

	assert.Error(t, json.Unmarshal([]byte(`{"ip":"10.0.0.2","port":22,"protocol":"gre"}`), &decoded))
	assert.Equal(t, "10.0.0.1:161/udp", Target{IP: "10.0.0.1", Port: 161, Protocol: UDP}.String())
}

func joinPorts(ports []int) string {
	s := ""
	for i, p := range ports {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprint(p)
	}
	return s
}
