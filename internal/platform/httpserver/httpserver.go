// Package httpserver builds the process's HTTP server. Timeouts are fixed
// here rather than configurable: every handler already runs under the router's
// per-request timeout, so these only guard against slow or stalled clients.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
)

// New wraps the handler in a server bound to addr.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}
