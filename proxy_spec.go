package realip

import (
	"bytes"
	"net/netip"
	"strconv"
	"strings"
)

// ProxySpec describes one trusted proxy: either an exact address or a subnet
// in CIDR notation.
//
// A spec that cannot be parsed is kept as an inert spec: Valid reports false
// and Contains never matches.
type ProxySpec struct {
	raw    string
	subnet bool
	valid  bool
	// prefix holds the masked subnet, or the exact address as a full-length
	// prefix.
	prefix netip.Prefix
}

// ParseProxySpec parses s as an exact address ("10.0.0.1", "2001:db8::1") or,
// when s contains a '/', as a subnet ("10.0.0.0/8", "2001:db8::/32").
//
// The address family of a subnet is inferred from its text: a ':' selects
// IPv6. Prefix lengths must be decimal without leading zeros and within
// 0..32 for IPv4 or 0..128 for IPv6.
func ParseProxySpec(s string) ProxySpec {
	raw := strings.TrimSpace(s)
	spec := ProxySpec{raw: raw}
	if raw == "" {
		return spec
	}

	addrText, bitsText, isSubnet := strings.Cut(raw, "/")
	spec.subnet = isSubnet

	addr, err := netip.ParseAddr(addrText)
	if err != nil {
		return spec
	}
	addr = addr.WithZone("")

	if !isSubnet {
		addr = normalizeIP(addr)
		spec.prefix = netip.PrefixFrom(addr, addr.BitLen())
		spec.valid = true
		return spec
	}

	if strings.Contains(addrText, ":") != addr.Is6() {
		return spec
	}

	bits, ok := parsePrefixLength(bitsText, addr.BitLen())
	if !ok {
		return spec
	}

	spec.prefix = netip.PrefixFrom(addr, bits).Masked()
	spec.valid = spec.prefix.IsValid()
	return spec
}

// ParseProxySpecs parses each entry with ParseProxySpec, preserving order.
func ParseProxySpecs(specs ...string) []ProxySpec {
	parsed := make([]ProxySpec, 0, len(specs))
	for _, s := range specs {
		parsed = append(parsed, ParseProxySpec(s))
	}
	return parsed
}

func parsePrefixLength(s string, maxBits int) (int, bool) {
	if s == "" || len(s) > 3 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}

	bits, err := strconv.Atoi(s)
	if err != nil || bits > maxBits {
		return 0, false
	}
	return bits, true
}

// String returns the spec as it was configured.
func (s ProxySpec) String() string {
	return s.raw
}

// Valid reports whether s parsed successfully.
func (s ProxySpec) Valid() bool {
	return s.valid
}

// IsSubnet reports whether s was written in CIDR notation.
func (s ProxySpec) IsSubnet() bool {
	return s.subnet
}

// Prefix returns the trusted range. Exact addresses are returned as
// full-length prefixes. The result is invalid for inert specs.
func (s ProxySpec) Prefix() netip.Prefix {
	if !s.valid {
		return netip.Prefix{}
	}
	return s.prefix
}

// Contains reports whether addr matches s.
//
// Exact specs match on address equality. Subnet specs match when addr has the
// subnet's family and its leading prefix bits equal the network's. Family
// mismatches and inert specs never match.
func (s ProxySpec) Contains(addr netip.Addr) bool {
	if !s.valid || !addr.IsValid() {
		return false
	}

	addr = normalizeIP(addr)
	network := s.prefix.Addr()
	if addr.Is4() != network.Is4() {
		return false
	}

	if !s.subnet {
		return addr == network
	}

	return leadingBitsEqual(addrBytes(addr), addrBytes(network), s.prefix.Bits())
}

func addrBytes(addr netip.Addr) []byte {
	if addr.Is4() {
		b := addr.As4()
		return b[:]
	}

	b := addr.As16()
	return b[:]
}

// leadingBitsEqual compares the first bits bits of a and b, which must have
// equal length.
func leadingBitsEqual(a, b []byte, bits int) bool {
	if len(a) != len(b) || bits < 0 || bits > len(a)*8 {
		return false
	}

	full := bits / 8
	if !bytes.Equal(a[:full], b[:full]) {
		return false
	}

	rem := bits % 8
	if rem == 0 {
		return true
	}

	mask := byte(0xff << (8 - rem))
	return a[full]&mask == b[full]&mask
}
