package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
	notification "github.com/saransh1220/portal-notify/internal/modules/notification/domain"
)

// FeedLimit caps how many of the newest entries a feed returns.
const FeedLimit = 50

// Pusher delivers a serialized notification to the user's open streams.
type Pusher interface {
	SendToUser(userID string, message []byte)
}

type FeedService struct {
	repo   domain.Repository
	pusher Pusher
	logger zerolog.Logger
	now    func() time.Time
}

func NewFeedService(repo domain.Repository, pusher Pusher, logger zerolog.Logger) *FeedService {
	return &FeedService{
		repo:   repo,
		pusher: pusher,
		logger: logger,
		now:    time.Now,
	}
}

// Create stores the notification for a status change and pushes it to
// the student's open streams. Stream delivery is best effort; the entry
// is already stored when the push happens.
func (s *FeedService) Create(ctx context.Context, change domain.StatusChange) (domain.Entry, error) {
	if err := change.Validate(); err != nil {
		return domain.Entry{}, err
	}

	entry := domain.NewEntry(change, s.now())
	if err := s.repo.Create(ctx, &entry); err != nil {
		return domain.Entry{}, fmt.Errorf("storing notification: %w", err)
	}

	payload, err := json.Marshal(entry.Notification())
	if err != nil {
		return entry, fmt.Errorf("encoding notification: %w", err)
	}
	s.pusher.SendToUser(entry.UserID, payload)

	s.logger.Info().
		Str("user_id", entry.UserID).
		Str("notification_id", entry.ID.String()).
		Str("new_status", change.NewStatus).
		Msg("notification created")
	return entry, nil
}

// Feed returns the newest entries of userID and the total unread count,
// which may exceed the unread entries in the returned page.
func (s *FeedService) Feed(ctx context.Context, userID string) (notification.Feed, error) {
	entries, err := s.repo.ListByUser(ctx, userID, FeedLimit)
	if err != nil {
		return notification.Feed{}, fmt.Errorf("listing notifications: %w", err)
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return notification.Feed{}, fmt.Errorf("counting unread: %w", err)
	}

	feed := notification.Feed{
		Notifications: make([]notification.Notification, 0, len(entries)),
		UnreadCount:   unread,
	}
	for _, e := range entries {
		feed.Notifications = append(feed.Notifications, e.Notification())
	}
	return feed, nil
}

// MarkRead marks one of userID's entries read. Unknown ids, malformed ids
// and entries of other users all report domain.ErrEntryNotFound.
func (s *FeedService) MarkRead(ctx context.Context, id, userID string) error {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrEntryNotFound
	}
	return s.repo.MarkRead(ctx, entryID, userID)
}

func (s *FeedService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
