package application

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/metrics"
)

// Listener observes inbound push notifications.
type Listener func(domain.Notification)

type registration struct {
	id uuid.UUID
	fn Listener
}

// Registry fans one inbound event stream out to any number of listeners.
// Events published before a listener subscribes are not replayed.
type Registry struct {
	mu        sync.RWMutex
	listeners []registration
	logger    zerolog.Logger
	metrics   *metrics.Collectors
}

func NewRegistry(logger zerolog.Logger, m *metrics.Collectors) *Registry {
	return &Registry{logger: logger, metrics: m}
}

// Subscribe registers fn and returns a function that removes exactly this
// registration. Calling the returned function more than once is harmless.
func (r *Registry) Subscribe(fn Listener) (unsubscribe func()) {
	reg := registration{id: uuid.New(), fn: fn}

	r.mu.Lock()
	r.listeners = append(r.listeners, reg)
	r.mu.Unlock()

	r.logger.Debug().Str("listener", reg.id.String()).Msg("listener subscribed")

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(reg.id) })
	}
}

func (r *Registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, reg := range r.listeners {
		if reg.id == id {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			r.logger.Debug().Str("listener", id.String()).Msg("listener unsubscribed")
			return
		}
	}
}

// Publish hands n to every listener in subscription order. A listener that
// panics is logged and skipped; the others still receive n.
func (r *Registry) Publish(n domain.Notification) {
	r.mu.RLock()
	snapshot := make([]registration, len(r.listeners))
	copy(snapshot, r.listeners)
	r.mu.RUnlock()

	for _, reg := range snapshot {
		r.deliver(reg, n)
	}
}

func (r *Registry) deliver(reg registration, n domain.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.ListenerPanicked()
			r.logger.Error().
				Str("listener", reg.id.String()).
				Str("notification_id", n.ID).
				Interface("panic", rec).
				Msg("listener panicked")
		}
	}()
	reg.fn(n)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
