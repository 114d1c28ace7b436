package realip

import (
	"fmt"
	"net/netip"
	"strings"
)

// Option configures a Resolver.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// ProxyIPs trusts forwarding headers from the given proxies.
//
// Each entry is parsed with ParseProxySpec: entries containing a '/' are
// subnets, everything else is an exact address. Malformed entries are kept as
// inert specs that never match; they are reported through the Logger. Calling
// ProxyIPs with no entries is equivalent to NoProxies.
//
// The list replaces any previously configured trust setting.
func ProxyIPs(specs ...string) Option {
	parsed := ParseProxySpecs(specs...)

	return func(c *config) error {
		if len(parsed) == 0 {
			c.trustMode = TrustNone
			c.proxySpecs = nil
			return nil
		}

		c.trustMode = TrustList
		c.proxySpecs = cloneProxySpecs(parsed)
		c.specsChanged = true
		return nil
	}
}

// ProxyIP trusts forwarding headers from a single proxy address.
//
// An address that is not syntactically valid is ignored: the resolver ends up
// with an empty trust list and never adopts a forwarded address.
func ProxyIP(addr string) Option {
	return func(c *config) error {
		c.trustMode = TrustList
		c.proxySpecs = nil

		spec := ParseProxySpec(addr)
		if spec.Valid() && !spec.IsSubnet() {
			c.proxySpecs = []ProxySpec{spec}
		}
		return nil
	}
}

// ProxyPrefixes trusts forwarding headers from proxies in the given prefixes.
func ProxyPrefixes(prefixes ...netip.Prefix) Option {
	specs := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		specs = append(specs, prefix.String())
	}

	return ProxyIPs(specs...)
}

// ProxyMode trusts forwarding headers regardless of the peer address.
//
// Only use it when every request is guaranteed to pass through a proxy that
// overwrites the configured headers.
func ProxyMode() Option {
	return func(c *config) error {
		c.trustMode = TrustAll
		c.proxySpecs = nil
		return nil
	}
}

// NoProxies ignores forwarding headers; resolution always returns the
// observed peer address. This is the default.
func NoProxies() Option {
	return func(c *config) error {
		c.trustMode = TrustNone
		c.proxySpecs = nil
		return nil
	}
}

// HeaderKeys sets the header priority list, replacing the default list.
//
// Names are canonicalized with CanonicalHeaderKey, so both "X-Forwarded-For"
// and "HTTP_X_FORWARDED_FOR" are accepted.
func HeaderKeys(keys ...string) Option {
	canonical := canonicalHeaderKeys(keys)

	return func(c *config) error {
		c.headerKeys = cloneStrings(canonical)
		return nil
	}
}

// DisableCache controls request-scoped memoization. When disabled, every
// Resolve call recomputes the result.
func DisableCache(disable bool) Option {
	return func(c *config) error {
		c.disableCache = disable
		return nil
	}
}

// WithLogger sets the logger implementation used for warning events.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked once, for the final winning metrics option, after
// option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("metrics factory cannot be nil")
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}

// ParseTrustSetting converts the textual proxy setting used by configuration
// files into an Option: "", "none" or "false" select NoProxies; "*", "all" or
// "true" select ProxyMode; anything else is a comma-separated ProxyIPs list.
func ParseTrustSetting(setting string) Option {
	setting = strings.TrimSpace(setting)
	switch strings.ToLower(setting) {
	case "", "none", "false":
		return NoProxies()
	case "*", "all", "true":
		return ProxyMode()
	}

	return ProxyIPs(strings.Split(setting, ",")...)
}
