package application

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
)

type streamerMock struct {
	mu          sync.Mutex
	connects    int
	disconnects int
}

func (s *streamerMock) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
}

func (s *streamerMock) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
}

func TestSession_StartAndStop(t *testing.T) {
	registry := NewRegistry(zerolog.Nop(), nil)
	client, _ := newSync(okAPI(domain.Feed{Notifications: []domain.Notification{{ID: "A"}}, UnreadCount: 1}))
	transport := &streamerMock{}
	s := NewSession(registry, client, transport, zerolog.Nop())

	feed := s.Start(context.Background())
	assert.Equal(t, []string{"A"}, ids(feed))
	assert.Equal(t, 1, transport.connects)

	var toasts []string
	unsub := s.Subscribe(func(n domain.Notification) { toasts = append(toasts, n.ID) })
	registry.Publish(domain.Notification{ID: "B"})
	assert.Equal(t, []string{"B"}, toasts)
	assert.Equal(t, []string{"B", "A"}, ids(s.Sync().Feed()))
	assert.Equal(t, 2, s.Sync().UnreadCount())

	s.Start(context.Background())
	assert.Equal(t, 1, transport.connects, "second Start is a no-op")

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, transport.disconnects)

	registry.Publish(domain.Notification{ID: "C"})
	assert.Equal(t, 2, s.Sync().UnreadCount(), "store is detached after Stop")
	assert.Equal(t, []string{"B", "C"}, toasts)
	unsub()
}
