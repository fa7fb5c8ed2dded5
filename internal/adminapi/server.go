// Package adminapi is a read-only HTTP surface for operational visibility
// into a running Mapping Service: engine health and the known mappings with
// their resolved property keys. It never writes back to the store or the resolvers it
// inspects, and it is not the "configuration dictionary consumer" the spec
// names as external (that consumer applies resolved dictionaries to live
// services; this surface only inspects them).
package adminapi

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/omarluq/mapping-engine/internal/enginehealth"
)

// Server wraps http.Server, serving plaintext HTTP/2 (h2c) the way the
// teacher's proxy.Server optionally does, scoped to a read-only admin
// surface instead of the request-proxying path.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer builds a Server bound to addr, exposing:
//   - GET /healthz — overall liveness (always 200 once the server answers).
//   - GET /debug/health — enginehealth.Snapshot as JSON.
//   - GET /debug/mappings — each known mapping's id with either its resolved
//     property keys or its resolve error; property values, resolver state
//     and dependency sets are not included.
func NewServer(addr string, inspector Inspector, tracker *enginehealth.Tracker) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/debug/health", handleDebugHealth(tracker))
	mux.HandleFunc("/debug/mappings", handleDebugMappings(inspector))

	h2s := &http2.Server{}
	handler := h2c.NewHandler(withRequestID(mux), h2s)

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the underlying http.Handler, for tests that want to drive
// the routes without binding a real listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server (blocks).
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
