package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event results recorded by the stream transport.
const (
	ResultDelivered = "delivered"
	ResultMalformed = "malformed"
	ResultIgnored   = "ignored"
)

// Collectors groups the client-side notification metrics. A nil *Collectors
// is valid and records nothing.
type Collectors struct {
	StreamConnects prometheus.Counter
	StreamFailures prometheus.Counter
	StreamEvents   *prometheus.CounterVec
	ReconnectDelay prometheus.Gauge
	ListenerPanics prometheus.Counter
	UnreadCount    prometheus.Gauge
	SyncRequests   *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		StreamConnects: f.NewCounter(prometheus.CounterOpts{
			Name: "notify_stream_connects_total",
			Help: "Successful stream opens.",
		}),
		StreamFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "notify_stream_failures_total",
			Help: "Stream dial or read failures that scheduled a reconnect.",
		}),
		StreamEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_stream_events_total",
			Help: "Inbound stream frames by outcome.",
		}, []string{"result"}),
		ReconnectDelay: f.NewGauge(prometheus.GaugeOpts{
			Name: "notify_stream_reconnect_delay_seconds",
			Help: "Delay before the currently scheduled reconnect.",
		}),
		ListenerPanics: f.NewCounter(prometheus.CounterOpts{
			Name: "notify_listener_panics_total",
			Help: "Listener callbacks that panicked during delivery.",
		}),
		UnreadCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "notify_unread_count",
			Help: "Unread counter held by the notification store.",
		}),
		SyncRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_sync_requests_total",
			Help: "REST calls issued by the sync client.",
		}, []string{"op", "result"}),
	}
}

func (c *Collectors) Connected() {
	if c == nil {
		return
	}
	c.StreamConnects.Inc()
	c.ReconnectDelay.Set(0)
}

func (c *Collectors) Failed(delaySeconds float64) {
	if c == nil {
		return
	}
	c.StreamFailures.Inc()
	c.ReconnectDelay.Set(delaySeconds)
}

func (c *Collectors) Event(result string) {
	if c == nil {
		return
	}
	c.StreamEvents.WithLabelValues(result).Inc()
}

func (c *Collectors) ListenerPanicked() {
	if c == nil {
		return
	}
	c.ListenerPanics.Inc()
}

func (c *Collectors) Unread(n int) {
	if c == nil {
		return
	}
	c.UnreadCount.Set(float64(n))
}

func (c *Collectors) Sync(op string, ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.SyncRequests.WithLabelValues(op, result).Inc()
}
