package realip

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"sync"
	"sync/atomic"
)

// zeroConfig backs Resolvers that were not created with New.
var zeroConfig = defaultConfig()

// Resolver determines the client address of HTTP requests that may have
// passed through trusted reverse proxies.
//
// Resolver instances are safe for concurrent use. Configuration is held in an
// immutable snapshot that Configure replaces atomically; results memoized by
// a request-scoped Request are tied to the snapshot that produced them, so no
// cached address survives a configuration change.
//
// The zero value resolves with the default configuration (no trusted
// proxies).
type Resolver struct {
	mu     sync.Mutex
	config atomic.Pointer[config]
}

// New creates a Resolver from one or more Option builders.
func New(opts ...Option) (*Resolver, error) {
	cfg, err := derive(zeroConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r := &Resolver{}
	r.publish(cfg)
	return r, nil
}

// Configure applies opts on top of the current configuration.
//
// The new configuration becomes visible to all subsequent resolutions at
// once. On error the current configuration stays in effect.
func (r *Resolver) Configure(opts ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := derive(r.snapshot(), opts...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	r.publish(cfg)
	return nil
}

// SetProxyMode switches r to trust forwarding headers unconditionally. It is
// shorthand for Configure(ProxyMode()).
func (r *Resolver) SetProxyMode() error {
	return r.Configure(ProxyMode())
}

func (r *Resolver) publish(cfg *config) {
	if cfg.specsChanged {
		for _, spec := range cfg.inertProxySpecs() {
			cfg.metrics.RecordSecurityEvent(securityEventInvalidProxySpec)
			cfg.logger.WarnContext(context.Background(), "ignoring malformed trusted proxy spec",
				"event", securityEventInvalidProxySpec,
				"spec", spec.String(),
			)
		}
		cfg.specsChanged = false
	}

	r.config.Store(cfg)
}

func (r *Resolver) snapshot() *config {
	if cfg := r.config.Load(); cfg != nil {
		return cfg
	}
	return zeroConfig
}

// TrustMode returns the active trust mode.
func (r *Resolver) TrustMode() TrustMode {
	return r.snapshot().trustMode
}

// ProxySpecs returns the active trust list, including inert specs. It is
// empty unless TrustMode is TrustList.
func (r *Resolver) ProxySpecs() []ProxySpec {
	return cloneProxySpecs(r.snapshot().proxySpecs)
}

// HeaderKeys returns the active header priority list.
func (r *Resolver) HeaderKeys() []string {
	return cloneStrings(r.snapshot().headerKeys)
}

// CacheDisabled reports whether request-scoped memoization is disabled.
func (r *Resolver) CacheDisabled() bool {
	return r.snapshot().disableCache
}

// ForRequest binds r to req. The returned Request memoizes its result unless
// caching is disabled, and must not outlive the request it was created for.
func (r *Resolver) ForRequest(req *http.Request) *Request {
	return r.ForInput(inputFromRequest(req))
}

// ForInput binds r to framework-agnostic request input.
func (r *Resolver) ForInput(input RequestInput) *Request {
	return &Request{resolver: r, input: input}
}

// Resolve determines the client address of req.
func (r *Resolver) Resolve(req *http.Request) Resolution {
	return r.ForRequest(req).Resolve()
}

// ResolveFrom determines the client address from framework-agnostic request
// input.
func (r *Resolver) ResolveFrom(input RequestInput) Resolution {
	return r.ForInput(input).Resolve()
}

// ResolveAddr determines only the client address of req. ok is false when no
// address could be determined.
func (r *Resolver) ResolveAddr(req *http.Request) (addr netip.Addr, ok bool) {
	res := r.Resolve(req)
	return res.Addr, res.Valid()
}

// ResolveAddrFrom determines only the client address from framework-agnostic
// request input.
func (r *Resolver) ResolveAddrFrom(input RequestInput) (addr netip.Addr, ok bool) {
	res := r.ResolveFrom(input)
	return res.Addr, res.Valid()
}

// ResolveWithOptions is a one-shot convenience helper.
//
// It constructs a temporary resolver from opts and resolves req.
func ResolveWithOptions(req *http.Request, opts ...Option) (Resolution, error) {
	r, err := New(opts...)
	if err != nil {
		return Resolution{}, err
	}

	return r.Resolve(req), nil
}

// ResolveFromWithOptions is a one-shot convenience helper for
// framework-agnostic request input.
func ResolveFromWithOptions(input RequestInput, opts ...Option) (Resolution, error) {
	r, err := New(opts...)
	if err != nil {
		return Resolution{}, err
	}

	return r.ResolveFrom(input), nil
}

// isTrustedProxy reports whether ip matches any configured spec. Specs are
// tried in order; inert specs never match.
func (c *config) isTrustedProxy(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	for _, spec := range c.proxySpecs {
		if spec.Contains(ip) {
			return true
		}
	}

	return false
}

func (c *config) logSecurityWarning(ctx context.Context, input RequestInput, source, event, msg string, attrs ...any) {
	baseAttrs := []any{
		"event", event,
		"source", source,
		"path", input.Path,
		"remote_addr", input.RemoteAddr,
	}

	baseAttrs = append(baseAttrs, attrs...)
	c.logger.WarnContext(ctx, msg, baseAttrs...)
}
