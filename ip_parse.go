package realip

import (
	"net"
	"net/netip"
	"strings"
)

// parseIP extracts an IP address from the formats found in forwarding headers.
// It handles:
//   - Leading/trailing whitespace: "  192.168.1.1  "
//   - Port suffixes: "192.168.1.1:8080" or "[::1]:8080"
//   - Quoted values: "\"192.168.1.1\"" or "'192.168.1.1'"
//   - IPv6 brackets: "[::1]"
//
// Returns an invalid netip.Addr (IsValid() == false) if parsing fails.
func parseIP(s string) netip.Addr {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}
	}

	s = trimMatchedChar(s, '"')
	s = trimMatchedChar(s, '\'')
	if s == "" {
		return netip.Addr{}
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}

	s = trimMatchedPair(s, '[', ']')

	ip, _ := netip.ParseAddr(s)
	return ip
}

// parseRemoteAddr parses Request.RemoteAddr, which is usually "host:port" but
// may be a bare address in tests and non-TCP transports.
func parseRemoteAddr(remoteAddr string) netip.Addr {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return netip.Addr{}
	}

	if addrPort, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return addrPort.Addr()
	}

	return parseIP(remoteAddr)
}

// normalizeIP unmaps IPv4-mapped IPv6 addresses and drops zones so equal
// hosts compare equal.
func normalizeIP(ip netip.Addr) netip.Addr {
	if ip.Is4In6() {
		ip = ip.Unmap()
	}
	if ip.Zone() != "" {
		ip = ip.WithZone("")
	}
	return ip
}

// trimMatchedPair removes one leading and trailing delimiter when both match.
func trimMatchedPair(s string, start, end byte) string {
	if len(s) < 2 {
		return s
	}

	if s[0] != start || s[len(s)-1] != end {
		return s
	}

	return s[1 : len(s)-1]
}

// trimMatchedChar removes one matching leading and trailing character.
func trimMatchedChar(s string, ch byte) string {
	return trimMatchedPair(s, ch, ch)
}
