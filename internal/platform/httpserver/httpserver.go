// Package httpserver builds the process's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// The write timeout must stay above the router's 150s request timeout: a
// transition completion legitimately blocks for up to the 120s signing
// deadline plus the remaining protocol steps, and the server must not cut
// the response before the handler's own timeout fires.
const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 3 * time.Minute
	idleTimeout       = 2 * time.Minute
)

// New builds the server around the assembled router.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
