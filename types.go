package realip

import (
	"net/netip"
	"strings"
)

const (
	// SourceRemoteAddr marks a resolution taken from Request.RemoteAddr.
	SourceRemoteAddr = "remote_addr"
)

// TrustMode describes how forwarding headers are trusted.
type TrustMode int

const (
	// TrustNone ignores forwarding headers and always resolves to the
	// observed peer address.
	TrustNone TrustMode = iota + 1
	// TrustAll trusts forwarding headers regardless of the peer address
	// (proxy mode).
	TrustAll
	// TrustList trusts forwarding headers only when the peer address matches
	// one of the configured proxy specs.
	TrustList
)

// String returns the canonical text representation of m.
func (m TrustMode) String() string {
	switch m {
	case TrustNone:
		return "none"
	case TrustAll:
		return "all"
	case TrustList:
		return "list"
	default:
		return "unknown"
	}
}

func (m TrustMode) valid() bool {
	return m == TrustNone || m == TrustAll || m == TrustList
}

// Resolution is the outcome of resolving a request's client address.
//
// The zero value is the absent result: no address could be determined because
// the request carried no usable peer address.
type Resolution struct {
	// Addr is the resolved client address. It is invalid when the result is
	// absent.
	Addr netip.Addr

	// Source is SourceRemoteAddr or the normalized name of the header that
	// supplied Addr (for example "x_forwarded_for").
	Source string

	// Header is the canonical name of the header that supplied Addr. It is
	// empty when Addr is the observed peer address.
	Header string
}

// Valid reports whether r holds an address.
func (r Resolution) Valid() bool {
	return r.Addr.IsValid()
}

// Forwarded reports whether Addr was taken from a forwarding header.
func (r Resolution) Forwarded() bool {
	return r.Valid() && r.Header != ""
}

// String returns the resolved address, or "<absent>" when r is not valid.
func (r Resolution) String() string {
	if !r.Valid() {
		return "<absent>"
	}
	return r.Addr.String()
}

// Forwarded is a forwarding-header candidate: the left-most valid hop of the
// first configured header that yielded one.
type Forwarded struct {
	Addr   netip.Addr
	Header string
}

// NormalizeSourceName converts a header name into its source label form
// ("X-Forwarded-For" becomes "x_forwarded_for").
func NormalizeSourceName(headerName string) string {
	return strings.ToLower(strings.ReplaceAll(headerName, "-", "_"))
}
