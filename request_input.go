package realip

import (
	"context"
	"net/http"
	"net/textproto"
	"strings"
)

// HeaderValues provides access to request header values by name.
//
// Header names are requested in the form returned by CanonicalHeaderKey (for
// example "X-Forwarded-For"). net/http's http.Header satisfies this interface
// directly.
type HeaderValues interface {
	Values(name string) []string
}

// HeaderValuesFunc adapts a function to the HeaderValues interface.
type HeaderValuesFunc func(name string) []string

// Values implements HeaderValues.
func (f HeaderValuesFunc) Values(name string) []string {
	if f == nil {
		return nil
	}

	return f(name)
}

// RequestInput provides framework-agnostic request data for resolution.
//
// Context defaults to context.Background() when nil. Path is only used to
// annotate log records.
type RequestInput struct {
	Context    context.Context
	RemoteAddr string
	Path       string
	Headers    HeaderValues
}

func requestInputContext(input RequestInput) context.Context {
	if input.Context == nil {
		return context.Background()
	}

	return input.Context
}

func inputFromRequest(r *http.Request) RequestInput {
	if r == nil {
		return RequestInput{}
	}

	input := RequestInput{
		Context:    r.Context(),
		RemoteAddr: r.RemoteAddr,
	}
	if r.URL != nil {
		input.Path = r.URL.Path
	}
	if r.Header != nil {
		input.Headers = r.Header
	}

	return input
}

// headerValue returns the first value of the named header, or "" when the
// header is absent.
func headerValue(headers HeaderValues, name string) string {
	if headers == nil || isNilInterface(headers) {
		return ""
	}

	values := headers.Values(name)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

const (
	headerCFConnectingIP   = "CF-Connecting-IP"
	headerClientIP         = "Client-Ip"
	headerXForwardedFor    = "X-Forwarded-For"
	headerXForwarded       = "X-Forwarded"
	headerXClusterClientIP = "X-Cluster-Client-Ip"
	headerForwardedFor     = "Forwarded-For"
	headerForwarded        = "Forwarded"
	headerVia              = "Via"
)

var defaultHeaderKeys = []string{
	headerCFConnectingIP,
	headerClientIP,
	headerXForwardedFor,
	headerXForwarded,
	headerXClusterClientIP,
	headerForwardedFor,
	headerForwarded,
	headerVia,
}

// DefaultHeaderKeys returns the default header priority list: CDN-specific
// headers first, then generic forwarding headers, ending with Via.
func DefaultHeaderKeys() []string {
	return cloneStrings(defaultHeaderKeys)
}

// CanonicalHeaderKey converts a header name to canonical MIME form.
//
// CGI-style names are accepted as well, so "HTTP_X_FORWARDED_FOR" and
// "x-forwarded-for" both become "X-Forwarded-For". The Cloudflare header keeps
// its conventional spelling "CF-Connecting-IP".
func CanonicalHeaderKey(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > len("HTTP_") && strings.EqualFold(name[:len("HTTP_")], "HTTP_") {
		name = name[len("HTTP_"):]
	}
	name = strings.ReplaceAll(name, "_", "-")

	key := textproto.CanonicalMIMEHeaderKey(name)
	if key == "Cf-Connecting-Ip" {
		return headerCFConnectingIP
	}
	return key
}

func canonicalHeaderKeys(keys []string) []string {
	canonical := make([]string, len(keys))
	for i, key := range keys {
		canonical[i] = CanonicalHeaderKey(key)
	}
	return canonical
}
