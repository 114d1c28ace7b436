package realip

import (
	"context"
	"net/http"
)

type requestContextKey struct{}

// Middleware binds r to every request passing through next. Handlers read the
// result with FromContext; the address is resolved on first use and memoized
// for the lifetime of the request.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		bound := r.ForRequest(req)
		ctx := context.WithValue(req.Context(), requestContextKey{}, bound)
		bound.input.Context = ctx

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// RequestFromContext returns the Request bound by Middleware.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	if ctx == nil {
		return nil, false
	}

	bound, ok := ctx.Value(requestContextKey{}).(*Request)
	return bound, ok && bound != nil
}

// FromContext resolves the client address of the request bound by
// Middleware. ok is false when no Request is bound or no address could be
// determined.
func FromContext(ctx context.Context) (Resolution, bool) {
	bound, ok := RequestFromContext(ctx)
	if !ok {
		return Resolution{}, false
	}

	res := bound.Resolve()
	return res, res.Valid()
}
