package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds handler execution through the request context. Handlers that
// respect ctx.Done() abort; the ledger and store layers all take contexts.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
