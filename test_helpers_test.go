package realip

import (
	"net/http"
	"net/url"
	"testing"
)

type resolutionState struct {
	HasAddr bool
	Addr    string
	Source  string
	Header  string
}

func resolutionStateOf(res Resolution) resolutionState {
	state := resolutionState{
		HasAddr: res.Valid(),
		Source:  res.Source,
		Header:  res.Header,
	}

	if res.Valid() {
		state.Addr = res.Addr.String()
	}

	return state
}

func mustNewResolver(t testing.TB, opts ...Option) *Resolver {
	t.Helper()

	resolver, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return resolver
}

func newTestRequest(remoteAddr, path string) *http.Request {
	req := &http.Request{
		RemoteAddr: remoteAddr,
		Header:     make(http.Header),
	}

	if path != "" {
		req.URL = &url.URL{Path: path}
	}

	return req
}

func newTestRequestWithHeaders(remoteAddr string, headers map[string]string) *http.Request {
	req := newTestRequest(remoteAddr, "")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	return req
}
