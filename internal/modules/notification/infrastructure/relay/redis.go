package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
)

const DefaultChannel = "portal:notifications"

// Publisher is the subset of *redis.Client the relay uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay republishes pushed notifications on a Redis channel so other
// local processes can react without opening their own stream. It is a
// Registry listener; publish errors are logged and never reach the
// transport.
type RedisRelay struct {
	client  Publisher
	channel string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewRedisRelay(client Publisher, channel string, logger zerolog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Forward publishes n as JSON. It matches the Registry listener signature.
func (r *RedisRelay) Forward(n domain.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		r.logger.Error().Err(err).Str("notification_id", n.ID).Msg("encoding relay payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	receivers, err := r.client.Publish(ctx, r.channel, payload).Result()
	if err != nil {
		r.logger.Warn().Err(err).Str("channel", r.channel).Msg("relay publish failed")
		return
	}
	r.logger.Debug().
		Str("notification_id", n.ID).
		Int64("receivers", receivers).
		Msg("notification relayed")
}
