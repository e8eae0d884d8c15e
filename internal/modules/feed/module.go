package feed

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/feed/application"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
	"github.com/saransh1220/portal-notify/internal/modules/feed/infrastructure/hub"
	feed_http "github.com/saransh1220/portal-notify/internal/modules/feed/interfaces/http"
	"github.com/saransh1220/portal-notify/internal/shared/logger"
)

type Module struct {
	service *application.FeedService
	handler *feed_http.FeedHandler
	hub     *hub.Hub
}

func NewModule(repo domain.Repository, heartbeat time.Duration, log zerolog.Logger) *Module {
	h := hub.NewHub(logger.Component(log, "hub"))
	go h.Run()

	service := application.NewFeedService(repo, h, logger.Component(log, "feed"))
	handler := feed_http.NewFeedHandler(service, h, heartbeat, logger.Component(log, "http"))

	return &Module{
		service: service,
		handler: handler,
		hub:     h,
	}
}

func (m *Module) HTTPHandler() *feed_http.FeedHandler {
	return m.handler
}

func (m *Module) Service() *application.FeedService {
	return m.service
}

// Shutdown closes every open stream.
func (m *Module) Shutdown() {
	m.hub.Stop()
}
