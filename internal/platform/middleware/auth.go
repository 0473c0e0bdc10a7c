package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "drivelog/pkg/domain"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Caller id.Identity
	JTI    string
}

type contextKeyCaller struct{}

// ContextKeyCaller is exported for use in handler tests that build contexts
// without running the full middleware chain.
var ContextKeyCaller = contextKeyCaller{}

// GetCaller retrieves the authenticated caller identity from the context.
// Returns the zero identity if no authenticated caller is present.
func GetCaller(ctx context.Context) id.Identity {
	caller, ok := ctx.Value(ContextKeyCaller).(id.Identity)
	if !ok {
		return id.ZeroIdentity
	}
	return caller
}

// WithCaller injects a caller identity into a context. Useful for tests.
func WithCaller(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(token)
				if err != nil {
					ctx := r.Context()
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}

				ctx := WithCaller(r.Context(), claims.Caller)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// No Authorization header or invalid format
			ctx := r.Context()
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", GetRequestID(ctx),
			)
			writeUnauthorized(w, "Missing or invalid Authorization header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}
