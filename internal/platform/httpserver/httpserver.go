// Package httpserver builds the process's single HTTP listener. Per-request
// deadlines live in the router's timeout middleware; only connection-level
// limits are set here.
package httpserver

import (
	"net/http"
	"time"
)

const (
	// readHeaderTimeout bounds slow-header clients before the request ever
	// reaches the router.
	readHeaderTimeout = 5 * time.Second
	// idleTimeout reclaims keep-alive connections from idle readers.
	idleTimeout = 2 * time.Minute
)

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}
