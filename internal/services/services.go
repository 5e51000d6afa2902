// Package services holds the static port to service-name mapping used to label
// probe results, together with the named port presets offered to clients.
package services

import "sort"

// Unknown is returned for ports that have no mapping.
const Unknown = "Unknown"

// Table maps protocol ("tcp", "udp") to port number to service name.
type Table map[string]map[int]string

var commonPorts = Table{
	"tcp": {
		20: "FTP-DATA", 21: "FTP", 22: "SSH", 23: "Telnet", 25: "SMTP",
		53: "DNS", 80: "HTTP", 110: "POP3", 143: "IMAP", 443: "HTTPS",
		445: "SMB", 993: "IMAPS", 995: "POP3S", 3306: "MySQL",
		3389: "RDP", 5432: "PostgreSQL", 8080: "HTTP-Proxy", 8443: "HTTPS-Alt",
	},
	"udp": {
		53: "DNS", 67: "DHCP-Server", 68: "DHCP-Client", 69: "TFTP",
		123: "NTP", 161: "SNMP", 162: "SNMP-Trap", 500: "IKE",
		514: "Syslog", 1194: "OpenVPN", 5060: "SIP", 5061: "SIP-TLS",
	},
}

// Lookup returns the service name for a port, or Unknown.
func Lookup(protocol string, port int) string {
	if name, ok := commonPorts[protocol][port]; ok {
		return name
	}
	return Unknown
}

// Common returns a copy of the service table. Callers may modify the copy.
func Common() Table {
	out := make(Table, len(commonPorts))
	for proto, ports := range commonPorts {
		m := make(map[int]string, len(ports))
		for port, name := range ports {
			m[port] = name
		}
		out[proto] = m
	}
	return out
}

// Ports returns the mapped ports for a protocol in ascending order.
func (t Table) Ports(protocol string) []int {
	ports := make([]int, 0, len(t[protocol]))
	for port := range t[protocol] {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}
