package application

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
)

// Streamer is the push transport as seen by the session.
type Streamer interface {
	Connect()
	Disconnect()
}

// Session ties one authenticated user session to the notification
// components. Start and Stop are the only lifecycle hooks; nothing
// connects on construction.
type Session struct {
	registry  *Registry
	sync      *SyncClient
	transport Streamer
	logger    zerolog.Logger

	mu      sync.Mutex
	unsub   func()
	started bool
}

func NewSession(registry *Registry, syncClient *SyncClient, transport Streamer, logger zerolog.Logger) *Session {
	return &Session{
		registry:  registry,
		sync:      syncClient,
		transport: transport,
		logger:    logger,
	}
}

// Start wires pushes into the Store, opens the stream and loads the feed.
// The stream is opened first so the two proceed in parallel; a push that
// lands before the fetch completes is overwritten by the fetched view.
func (s *Session) Start(ctx context.Context) domain.Feed {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return s.sync.Feed()
	}
	s.started = true
	s.unsub = s.registry.Subscribe(s.sync.OnPush)
	s.transport.Connect()
	s.mu.Unlock()

	s.logger.Info().Msg("notification session started")
	return s.sync.FetchAll(ctx)
}

// Stop detaches from the stream and cancels any pending reconnect. The
// Store keeps its content until the Session is discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.transport.Disconnect()
	s.logger.Info().Msg("notification session stopped")
}

// Subscribe lets presentation adapters observe pushes.
func (s *Session) Subscribe(fn Listener) func() {
	return s.registry.Subscribe(fn)
}

func (s *Session) Sync() *SyncClient {
	return s.sync
}
