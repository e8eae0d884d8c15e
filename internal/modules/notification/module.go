package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/application"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/metrics"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/relay"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/rest"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/stream"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/config"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/credential"
	"github.com/saransh1220/portal-notify/internal/shared/logger"
)

// Deps are the collaborators the module does not build itself.
type Deps struct {
	Tokens credential.Source
	Logger zerolog.Logger
	// Metrics may be nil.
	Metrics *metrics.Collectors
	// Relay, when set, receives every pushed notification.
	Relay relay.Publisher
	// HTTPClient is used by the SSE dialer. Defaults to a client without
	// a timeout since the stream is long-lived.
	HTTPClient *http.Client
}

type Module struct {
	registry  *application.Registry
	store     *application.Store
	sync      *application.SyncClient
	transport *stream.Transport
	session   *application.Session

	unsubRelay func()
}

func NewModule(cfg config.Config, deps Deps) (*Module, error) {
	if deps.Tokens == nil {
		return nil, fmt.Errorf("notification module: %w", credential.ErrNoCredential)
	}

	dialer, err := newDialer(cfg, deps.HTTPClient)
	if err != nil {
		return nil, err
	}

	registry := application.NewRegistry(logger.Component(deps.Logger, "registry"), deps.Metrics)
	store := application.NewStore(cfg.Store.DedupePush, deps.Metrics)

	api := rest.NewClient(cfg.API.BaseURL, rest.DefaultRoutes(), deps.Tokens, cfg.API.Timeout)
	syncClient := application.NewSyncClient(api, store, logger.Component(deps.Logger, "sync"), deps.Metrics)

	transport := stream.NewTransport(
		dialer,
		deps.Tokens,
		registry.Publish,
		stream.BackoffConfig{
			InitialDelay: cfg.Stream.InitialDelay,
			MaxDelay:     cfg.Stream.MaxDelay,
			Multiplier:   cfg.Stream.Multiplier,
		},
		logger.Component(deps.Logger, "stream"),
		deps.Metrics,
	)

	m := &Module{
		registry:  registry,
		store:     store,
		sync:      syncClient,
		transport: transport,
		session:   application.NewSession(registry, syncClient, transport, logger.Component(deps.Logger, "session")),
	}

	if deps.Relay != nil {
		r := relay.NewRedisRelay(deps.Relay, cfg.Relay.Channel, logger.Component(deps.Logger, "relay"))
		m.unsubRelay = registry.Subscribe(r.Forward)
	}

	return m, nil
}

func newDialer(cfg config.Config, client *http.Client) (stream.Dialer, error) {
	switch cfg.Stream.Transport {
	case "", config.TransportSSE:
		if client == nil {
			client = &http.Client{}
		}
		return stream.NewSSEDialer(cfg.API.BaseURL, cfg.Stream.SSEPath, client), nil
	case config.TransportWebSocket:
		return stream.NewWebSocketDialer(cfg.API.BaseURL, cfg.Stream.WSPath, websocket.DefaultDialer), nil
	default:
		return nil, fmt.Errorf("unknown stream transport %q", cfg.Stream.Transport)
	}
}

// Start begins the user session: the stream is opened and the feed
// fetched. The returned feed is empty when the fetch failed.
func (m *Module) Start(ctx context.Context) domain.Feed {
	return m.session.Start(ctx)
}

// Shutdown ends the session and detaches the relay.
func (m *Module) Shutdown() {
	m.session.Stop()
	if m.unsubRelay != nil {
		m.unsubRelay()
		m.unsubRelay = nil
	}
}

func (m *Module) Session() *application.Session {
	return m.session
}

func (m *Module) Sync() *application.SyncClient {
	return m.sync
}

func (m *Module) Transport() *stream.Transport {
	return m.transport
}

func (m *Module) Registry() *application.Registry {
	return m.registry
}
