package application

import (
	"maps"
	"sync"

	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/metrics"
)

// Store is the reconciled client-side feed. Every mutation is applied in
// full under the lock before the method returns.
type Store struct {
	mu            sync.RWMutex
	notifications []domain.Notification
	unread        int
	dedupePush    bool
	metrics       *metrics.Collectors
}

// NewStore returns an empty store. With dedupePush set, a pushed
// notification whose id is already present is dropped.
func NewStore(dedupePush bool, m *metrics.Collectors) *Store {
	return &Store{
		notifications: []domain.Notification{},
		dedupePush:    dedupePush,
		metrics:       m,
	}
}

// Replace overwrites the whole feed, including the unread counter.
func (s *Store) Replace(feed domain.Feed) {
	items := make([]domain.Notification, len(feed.Notifications))
	copy(items, feed.Notifications)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = items
	s.setUnreadLocked(feed.UnreadCount)
}

// Prepend inserts n at the front and bumps the unread counter. It reports
// false when n was dropped as a duplicate.
func (s *Store) Prepend(n domain.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dedupePush && s.indexLocked(n.ID) >= 0 {
		return false
	}
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	s.setUnreadLocked(s.unread + 1)
	return true
}

// MarkRead flags id as read and decrements the counter, floored at zero.
// An id outside the local page still decrements, since the server may count
// it; an id already read locally does not. It reports whether id was found.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i >= 0 && s.notifications[i].IsRead {
		return true
	}
	if i >= 0 {
		s.notifications[i].IsRead = true
	}
	s.setUnreadLocked(s.unread - 1)
	return i >= 0
}

func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].IsRead = true
	}
	s.setUnreadLocked(0)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func (s *Store) Get(id string) (domain.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return domain.Notification{}, false
	}
	return cloneNotification(s.notifications[i]), true
}

// Snapshot returns a copy of the feed that callers may keep and modify.
func (s *Store) Snapshot() domain.Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.Notification, len(s.notifications))
	for i, n := range s.notifications {
		items[i] = cloneNotification(n)
	}
	return domain.Feed{Notifications: items, UnreadCount: s.unread}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) setUnreadLocked(n int) {
	if n < 0 {
		n = 0
	}
	s.unread = n
	s.metrics.Unread(n)
}

func cloneNotification(n domain.Notification) domain.Notification {
	n.Data = maps.Clone(n.Data)
	return n
}
