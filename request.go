package realip

import (
	"context"
	"net/netip"
	"strings"
	"sync"
)

// Request is a Resolver bound to a single inbound request.
//
// It memoizes the most recent resolution in a single slot keyed by the
// configuration snapshot that produced it. A Request is safe for concurrent
// use by the goroutines serving its request; it must not be shared across
// requests.
type Request struct {
	resolver *Resolver
	input    RequestInput

	mu               sync.Mutex
	cached           Resolution
	cachedGeneration uint64
	hasCached        bool
}

// Resolve determines the client address.
//
// With TrustNone the observed peer address is returned and forwarding headers
// are ignored. With TrustAll the first valid forwarded address wins. With
// TrustList the forwarded address is adopted only when the peer matches a
// trusted proxy spec. The result is absent only when the request carries no
// usable peer address.
func (q *Request) Resolve() Resolution {
	cfg := q.resolver.snapshot()

	if !cfg.disableCache {
		if res, ok := q.cachedResult(cfg.generation); ok {
			return res
		}
	}

	res := q.resolve(cfg)
	q.store(cfg, res)
	return res
}

func (q *Request) cachedResult(generation uint64) (Resolution, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.hasCached || q.cachedGeneration != generation {
		return Resolution{}, false
	}
	return q.cached, true
}

func (q *Request) store(cfg *config, res Resolution) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if cfg.disableCache {
		q.cached = Resolution{}
		q.hasCached = false
		return
	}

	if q.hasCached && q.cachedGeneration > cfg.generation {
		return
	}

	q.cached = res
	q.cachedGeneration = cfg.generation
	q.hasCached = true
}

func (q *Request) resolve(cfg *config) Resolution {
	ctx := requestInputContext(q.input)

	observed, ok := q.observedAddress(ctx, cfg)
	if !ok {
		cfg.metrics.RecordResolutionFailure(SourceRemoteAddr)
		return Resolution{}
	}

	switch cfg.trustMode {
	case TrustAll:
		if fwd, ok := firstValidForwardedAddress(ctx, cfg, q.input); ok {
			return succeed(cfg, forwardedResolution(fwd))
		}

	case TrustList:
		fwd, ok := firstValidForwardedAddress(ctx, cfg, q.input)
		if !ok {
			break
		}

		if cfg.isTrustedProxy(observed) {
			return succeed(cfg, forwardedResolution(fwd))
		}

		cfg.metrics.RecordSecurityEvent(securityEventUntrustedProxy)
		cfg.logSecurityWarning(ctx, q.input, NormalizeSourceName(fwd.Header), securityEventUntrustedProxy,
			"forwarding header received from untrusted proxy",
			"header", fwd.Header,
			"forwarded_addr", fwd.Addr.String(),
		)
	}

	return succeed(cfg, Resolution{Addr: observed, Source: SourceRemoteAddr})
}

func succeed(cfg *config, res Resolution) Resolution {
	cfg.metrics.RecordResolutionSuccess(res.Source)
	return res
}

func forwardedResolution(fwd Forwarded) Resolution {
	return Resolution{
		Addr:   fwd.Addr,
		Source: NormalizeSourceName(fwd.Header),
		Header: fwd.Header,
	}
}

// ObservedAddress returns the address of the direct network peer. ok is false
// when the request has no peer address or it is not a valid IP.
func (q *Request) ObservedAddress() (addr netip.Addr, ok bool) {
	cfg := q.resolver.snapshot()
	return q.observedAddress(requestInputContext(q.input), cfg)
}

func (q *Request) observedAddress(ctx context.Context, cfg *config) (netip.Addr, bool) {
	if strings.TrimSpace(q.input.RemoteAddr) == "" {
		return netip.Addr{}, false
	}

	ip := parseRemoteAddr(q.input.RemoteAddr)
	if !ip.IsValid() {
		cfg.metrics.RecordSecurityEvent(securityEventInvalidRemoteAddr)
		cfg.logSecurityWarning(ctx, q.input, SourceRemoteAddr, securityEventInvalidRemoteAddr,
			"request remote address is not a valid IP")
		return netip.Addr{}, false
	}

	return normalizeIP(ip), true
}

// FirstValidForwardedAddress scans the configured headers in priority order
// and returns the left-most hop of the first header whose value is a valid
// IP address. It does not consult the trust configuration.
//
// Headers present with an unusable value are reported as invalid_header_value
// security events and skipped.
func (q *Request) FirstValidForwardedAddress() (Forwarded, bool) {
	return firstValidForwardedAddress(requestInputContext(q.input), q.resolver.snapshot(), q.input)
}

func firstValidForwardedAddress(ctx context.Context, cfg *config, input RequestInput) (Forwarded, bool) {
	for _, name := range cfg.headerKeys {
		value := headerValue(input.Headers, name)
		if value == "" {
			continue
		}

		ip := parseIP(leftmostHop(name, value))
		if !ip.IsValid() {
			cfg.metrics.RecordSecurityEvent(securityEventInvalidHeaderValue)
			cfg.logSecurityWarning(ctx, input, NormalizeSourceName(name), securityEventInvalidHeaderValue,
				"forwarding header does not hold a valid IP address",
				"header", name,
			)
			continue
		}

		return Forwarded{Addr: normalizeIP(ip), Header: name}, true
	}

	return Forwarded{}, false
}

// leftmostHop returns the first entry of a hop chain. For the RFC 7239
// Forwarded header this is the for= value of the first element.
func leftmostHop(headerName, value string) string {
	if headerName == headerForwarded {
		forwardedFor, _ := leftmostForwardedFor(value)
		return forwardedFor
	}

	hop, _, _ := strings.Cut(value, ",")
	return hop
}
