// Package reqid assigns a per-request trace identifier and threads it
// through context so handlers, logs, and error bodies can all cite the
// same id, per spec.md §4.7's request-ID note.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey struct{}

var key = contextKey{}

// Header is the response header carrying the request id.
const Header = "X-Request-Id"

// New generates a fresh request id.
func New() string {
	return uuid.New().String()
}

// WithValue returns a context carrying id.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

// FromContext returns the request id stored in ctx, or "" if none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key).(string)
	return id
}

// Middleware assigns a request id (reusing an inbound X-Request-Id
// header if present), stores it on the request context, and echoes it
// back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = New()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithValue(r.Context(), id)))
	})
}
