// Package middleware provides HTTP middleware for LensForge.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// ctxKey is a private type to prevent collisions with other context keys.
type ctxKey struct{}

// RequestID is HTTP middleware that extracts X-Request-ID from the
// request header or generates a fresh uuid, the same identifier scheme
// used for batches and suite runs. The ID is stored in the context and
// echoed on the response header so a caller can correlate a submission
// with the server logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := WithID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithID returns a context carrying the given request ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext extracts the request ID, or "" when none is set.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
