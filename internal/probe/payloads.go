package probe

import (
	"math/rand/v2"

	"github.com/gosnmp/gosnmp"
	"github.com/miekg/dns"
)

const (
	portDNS  = 53
	portNTP  = 123
	portSNMP = 161

	snmpCommunity = "public"
	sysDescrOID   = ".1.3.6.1.2.1.1.1.0"
	ntpPacketSize = 48
)

var defaultUDPPayload = []byte{0x00}

// udpPayloads holds builders for services that ignore an empty datagram.
var udpPayloads = map[int]func() ([]byte, error){
	portDNS:  dnsQuery,
	portNTP:  ntpRequest,
	portSNMP: snmpGetRequest,
}

// udpPayload returns the datagram sent to port. Unknown ports, and any
// builder failure, get a single zero byte.
func udpPayload(port int) []byte {
	build, ok := udpPayloads[port]
	if !ok {
		return defaultUDPPayload
	}
	payload, err := build()
	if err != nil || len(payload) == 0 {
		return defaultUDPPayload
	}
	return payload
}

// dnsQuery asks for the root NS set, which any resolver or authoritative
// server answers.
func dnsQuery() ([]byte, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(".", dns.TypeNS)
	msg.RecursionDesired = false
	return msg.Pack()
}

// ntpRequest is a version 4 client request with an empty timestamp section.
func ntpRequest() ([]byte, error) {
	pkt := make([]byte, ntpPacketSize)
	copy(pkt, []byte{
		0xe3,       // LI unknown, version 4, client mode
		0x00,       // stratum
		0x04,       // poll interval
		0xfa,       // precision
		0x00, 0x01, // root delay
		0x00, 0x00,
		0x00, 0x01, // root dispersion
		0x00, 0x00,
	})
	return pkt, nil
}

func snmpGetRequest() ([]byte, error) {
	packet := &gosnmp.SnmpPacket{
		Version:   gosnmp.Version2c,
		Community: snmpCommunity,
		PDUType:   gosnmp.GetRequest,
		RequestID: rand.Uint32() & 0x7fffffff,
		Variables: []gosnmp.SnmpPDU{
			{Name: sysDescrOID, Type: gosnmp.Null},
		},
	}
	return packet.MarshalMsg()
}
