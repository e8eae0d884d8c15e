package gateway

import (
	"net/http"

	"github.com/saransh1220/portal-notify/internal/gateway/middleware"
)

// Router wraps http.ServeMux and instruments every registered route
type Router struct {
	mux     *http.ServeMux
	metrics *middleware.HTTPMetrics
}

// NewRouter creates a new router. metrics may be nil.
func NewRouter(metrics *middleware.HTTPMetrics) *Router {
	return &Router{
		mux:     http.NewServeMux(),
		metrics: metrics,
	}
}

// Mux returns the underlying http.ServeMux
func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

// Handle registers a handler for the given pattern
func (r *Router) Handle(pattern string, handler http.Handler) {
	if r.metrics != nil {
		handler = r.metrics.Instrument(pattern, handler)
	}
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a handler function for the given pattern
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}
