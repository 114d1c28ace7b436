// Package realip resolves the originating client address of HTTP requests
// that may have passed through trusted reverse proxies or load balancers.
//
// # Features
//
//   - Forwarding headers are only honored from configured proxies
//   - Trusted proxies as exact addresses or IPv4/IPv6 subnets
//   - Configurable header priority list (CF-Connecting-IP, X-Forwarded-For, ...)
//   - Request-scoped memoization that never survives a configuration change
//   - Optional observability with context-aware logging and pluggable metrics
//   - Type-safe using modern Go netip.Addr
//
// # Basic Usage
//
// Without configuration, forwarding headers are ignored and the peer address
// is returned:
//
//	resolver, err := realip.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := resolver.Resolve(req)
//	if !res.Valid() {
//	    // no peer address available
//	}
//	fmt.Println(res.Addr, res.Source)
//
// # Behind Reverse Proxy
//
// Trust forwarding headers from known proxies:
//
//	resolver, err := realip.New(
//	    realip.ProxyIPs("10.0.0.0/8", "192.168.1.10"),
//	    realip.HeaderKeys("X-Forwarded-For"),
//	)
//
// A header value may be a hop chain ("client, proxy1, proxy2"); the left-most
// entry is used. Headers are scanned in priority order and the first one
// holding a valid address wins. When the peer is not a trusted proxy the
// header is ignored and the peer address is returned.
//
// ProxyMode trusts forwarding headers from any peer. Only use it when a proxy
// in front of the application always overwrites the configured headers.
//
// # Middleware
//
//	handler := resolver.Middleware(mux)
//
//	func serve(w http.ResponseWriter, r *http.Request) {
//	    res, ok := realip.FromContext(r.Context())
//	    ...
//	}
//
// # Reconfiguration
//
// Configure replaces the configuration atomically:
//
//	err := resolver.Configure(realip.ProxyIPs("172.16.0.0/12"))
//
// Results memoized by a Request are tied to the configuration that produced
// them, so a later Resolve call never returns an address computed under the
// previous configuration.
//
// # Observability
//
// A Prometheus adapter lives in github.com/abczzz13/realip/prometheus. The
// logger receives the request context, allowing trace/span IDs to flow
// through:
//
//	resolver, err := realip.New(
//	    realip.ProxyIPs("10.0.0.0/8"),
//	    realip.WithLogger(slog.Default()),
//	    realipprom.WithRegisterer(registry),
//	)
//
// # Thread Safety
//
// Resolver instances are safe for concurrent use and are typically created
// once at application startup. Request values are bound to a single inbound
// request and must not be reused for other requests.
package realip
