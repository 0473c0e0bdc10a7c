package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyDevice struct{}

// ContextKeyDevice is exported for use in handlers
var ContextKeyDevice = contextKeyDevice{}

// GetDevice retrieves the device summary from the context.
func GetDevice(ctx context.Context) string {
	device, ok := ctx.Value(ContextKeyDevice).(string)
	if !ok {
		return ""
	}
	return device
}

// WithDevice injects a device summary into a context. Useful for tests.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ContextKeyDevice, device)
}

// Device parses the User-Agent header into a compact browser/OS summary so
// notification events can record which device triggered an access decision.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithDevice(r.Context(), summarizeUserAgent(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func summarizeUserAgent(raw string) string {
	if raw == "" {
		return "unknown"
	}

	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		// Non-browser clients (curl, SDKs) keep the raw product token.
		if idx := strings.IndexByte(raw, ' '); idx != -1 {
			return raw[:idx]
		}
		return raw
	}

	summary := name
	if version != "" {
		summary = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OS(); os != "" {
		summary = fmt.Sprintf("%s on %s", summary, os)
	}
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
