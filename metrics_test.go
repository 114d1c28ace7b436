package realip

import (
	"sync"
	"testing"
)

type mockMetrics struct {
	mu             sync.Mutex
	successCount   map[string]int
	failureCount   map[string]int
	securityEvents map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		successCount:   make(map[string]int),
		failureCount:   make(map[string]int),
		securityEvents: make(map[string]int),
	}
}

func (m *mockMetrics) RecordResolutionSuccess(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successCount[source]++
}

func (m *mockMetrics) RecordResolutionFailure(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failureCount[source]++
}

func (m *mockMetrics) RecordSecurityEvent(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.securityEvents[event]++
}

func (m *mockMetrics) getSuccessCount(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successCount[source]
}

func (m *mockMetrics) getFailureCount(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failureCount[source]
}

func (m *mockMetrics) getSecurityEventCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.securityEvents[event]
}

func TestMetrics_ResolutionSuccessFromHeader(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics), ProxyIPs("10.0.0.0/8"))

	resolver.Resolve(newTestRequestWithHeaders("10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.1"}))

	if got := metrics.getSuccessCount("x_forwarded_for"); got != 1 {
		t.Fatalf("x_forwarded_for success count = %d, want 1", got)
	}
	if got := metrics.getSuccessCount(SourceRemoteAddr); got != 0 {
		t.Fatalf("remote_addr success count = %d, want 0", got)
	}
}

func TestMetrics_ResolutionSuccessFromRemoteAddr(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics))

	resolver.Resolve(newTestRequest("198.51.100.9:80", ""))

	if got := metrics.getSuccessCount(SourceRemoteAddr); got != 1 {
		t.Fatalf("remote_addr success count = %d, want 1", got)
	}
}

func TestMetrics_ResolutionFailure(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics))

	resolver.Resolve(newTestRequest("", ""))
	resolver.Resolve(newTestRequest("garbage", ""))

	if got := metrics.getFailureCount(SourceRemoteAddr); got != 2 {
		t.Fatalf("remote_addr failure count = %d, want 2", got)
	}
	if got := metrics.getSecurityEventCount(securityEventInvalidRemoteAddr); got != 1 {
		t.Fatalf("invalid_remote_addr events = %d, want 1", got)
	}
}

func TestMetrics_UntrustedProxyEvent(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics), ProxyIPs("10.0.0.0/8"))

	resolver.Resolve(newTestRequestWithHeaders("198.51.100.9:80", map[string]string{"X-Forwarded-For": "203.0.113.1"}))

	if got := metrics.getSecurityEventCount(securityEventUntrustedProxy); got != 1 {
		t.Fatalf("untrusted_proxy events = %d, want 1", got)
	}
	if got := metrics.getSuccessCount(SourceRemoteAddr); got != 1 {
		t.Fatalf("remote_addr success count = %d, want 1", got)
	}
}

func TestMetrics_InvalidHeaderValueEvent(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics), ProxyMode(), HeaderKeys("X-Forwarded-For", "X-Real-IP"))

	res := resolver.Resolve(newTestRequestWithHeaders("10.0.0.1:1", map[string]string{"X-Forwarded-For": "not-an-ip"}))
	if got := res.Addr.String(); got != "10.0.0.1" {
		t.Fatalf("Resolve() = %s, want observed address", got)
	}
	if got := metrics.getSecurityEventCount(securityEventInvalidHeaderValue); got != 1 {
		t.Fatalf("invalid_header_value events = %d, want 1", got)
	}

	// The scan continues past the invalid header.
	res = resolver.Resolve(newTestRequestWithHeaders("10.0.0.1:1", map[string]string{
		"X-Forwarded-For": "unknown, 10.0.0.2",
		"X-Real-IP":       "203.0.113.7",
	}))
	if got := res.Addr.String(); got != "203.0.113.7" {
		t.Fatalf("Resolve() = %s, want 203.0.113.7", got)
	}
	if got := metrics.getSecurityEventCount(securityEventInvalidHeaderValue); got != 2 {
		t.Fatalf("invalid_header_value events = %d, want 2", got)
	}
}

func TestMetrics_AbsentHeadersRecordNoInvalidHeaderValue(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics), ProxyMode())

	resolver.Resolve(newTestRequestWithHeaders("10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.1"}))

	if got := metrics.getSecurityEventCount(securityEventInvalidHeaderValue); got != 0 {
		t.Fatalf("invalid_header_value events = %d, want 0", got)
	}
}

func TestMetrics_InvalidProxySpecEvent(t *testing.T) {
	metrics := newMockMetrics()
	mustNewResolver(t, WithMetrics(metrics), ProxyIPs("10.0.0.0/abc", "10.0.0.0/33", "10.0.0.1"))

	if got := metrics.getSecurityEventCount(securityEventInvalidProxySpec); got != 2 {
		t.Fatalf("invalid_proxy_spec events = %d, want 2", got)
	}
}

func TestMetrics_MemoizedResolveRecordsOnce(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics))
	bound := resolver.ForRequest(newTestRequest("198.51.100.9:80", ""))

	bound.Resolve()
	bound.Resolve()
	bound.Resolve()

	if got := metrics.getSuccessCount(SourceRemoteAddr); got != 1 {
		t.Fatalf("remote_addr success count = %d, want 1", got)
	}
}

func TestMetrics_DisabledCacheRecordsEveryCall(t *testing.T) {
	metrics := newMockMetrics()
	resolver := mustNewResolver(t, WithMetrics(metrics), DisableCache(true))
	bound := resolver.ForRequest(newTestRequest("198.51.100.9:80", ""))

	bound.Resolve()
	bound.Resolve()

	if got := metrics.getSuccessCount(SourceRemoteAddr); got != 2 {
		t.Fatalf("remote_addr success count = %d, want 2", got)
	}
}
