package application

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/metrics"
)

// FeedAPI is the portal's notification REST surface.
type FeedAPI interface {
	FetchFeed(ctx context.Context) (domain.Feed, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// SyncClient merges REST results and push events into the Store. None of
// its methods return errors: failures are logged and degrade to a safe
// value so callers never have to handle them.
type SyncClient struct {
	api     FeedAPI
	store   *Store
	logger  zerolog.Logger
	metrics *metrics.Collectors
}

func NewSyncClient(api FeedAPI, store *Store, logger zerolog.Logger, m *metrics.Collectors) *SyncClient {
	return &SyncClient{api: api, store: store, logger: logger, metrics: m}
}

// FetchAll replaces the Store with the server's view and returns it. On
// failure the Store keeps its previous content and an empty feed is
// returned.
func (c *SyncClient) FetchAll(ctx context.Context) domain.Feed {
	feed, err := c.api.FetchFeed(ctx)
	c.metrics.Sync("fetch", err == nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("fetch notifications failed")
		return domain.EmptyFeed()
	}
	c.store.Replace(feed)
	c.logger.Debug().
		Int("count", len(feed.Notifications)).
		Int("unread", feed.UnreadCount).
		Msg("feed loaded")
	return c.store.Snapshot()
}

// OnPush records a pushed notification. It is meant to be subscribed to
// the Registry.
func (c *SyncClient) OnPush(n domain.Notification) {
	if !c.store.Prepend(n) {
		c.logger.Debug().Str("notification_id", n.ID).Msg("duplicate push dropped")
	}
}

// MarkRead marks id read locally, then tells the server.
//
// The local change is optimistic and is never rolled back: if the request
// fails the Store stays ahead of the server until the next FetchAll. The
// return value only reports whether the server acknowledged the change.
func (c *SyncClient) MarkRead(ctx context.Context, id string) bool {
	c.store.MarkRead(id)

	err := c.api.MarkRead(ctx, id)
	c.metrics.Sync("mark_read", err == nil)
	if err != nil {
		c.logger.Error().Err(err).Str("notification_id", id).Msg("mark read failed")
		return false
	}
	return true
}

// MarkAllRead follows the same optimistic, no-rollback policy as MarkRead.
func (c *SyncClient) MarkAllRead(ctx context.Context) bool {
	c.store.MarkAllRead()

	err := c.api.MarkAllRead(ctx)
	c.metrics.Sync("mark_all_read", err == nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("mark all read failed")
		return false
	}
	return true
}

// Feed returns the current Store content.
func (c *SyncClient) Feed() domain.Feed {
	return c.store.Snapshot()
}

func (c *SyncClient) UnreadCount() int {
	return c.store.UnreadCount()
}
