package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/portal-notify/internal/gateway/middleware"
	feed_http "github.com/saransh1220/portal-notify/internal/modules/feed/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleWare
	FeedHandler    *feed_http.FeedHandler
	Metrics        *middleware.HTTPMetrics
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer       prometheus.Gatherer
	AllowedOrigins string
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) http.Handler {
	router := NewRouter(config.Metrics)
	auth := config.AuthMiddleware.RequireAuth

	// Health Check
	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	gatherer := config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Mux().Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Student notification routes
	h := config.FeedHandler
	router.Handle("GET /api/student/notifications", auth(http.HandlerFunc(h.List)))
	router.Handle("POST /api/student/notifications", auth(http.HandlerFunc(h.Create)))
	router.Handle("PUT /api/student/notifications/{id}/read", auth(http.HandlerFunc(h.MarkRead)))
	router.Handle("PUT /api/student/notifications/read-all", auth(http.HandlerFunc(h.MarkAllRead)))
	router.Handle("GET /api/student/notifications/stream", auth(http.HandlerFunc(h.Stream)))
	router.Handle("GET /ws", auth(http.HandlerFunc(h.Subscribe)))

	return middleware.CORSMiddleware(router.Mux(), config.AllowedOrigins)
}
