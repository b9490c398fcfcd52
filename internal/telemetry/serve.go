package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeMetrics starts a net/http + promhttp listener on addr, returning
// the *http.Server so the caller can Shutdown it gracefully. This is the
// concrete, -b/--benchmark-gated implementation of the "statistics pretty-printing"
// external collaborator named in spec.md §1 — optional, never part of the
// latency-critical core.
func ServeMetrics(addr string, c *Counters) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}

// Shutdown stops a server started by ServeMetrics.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
