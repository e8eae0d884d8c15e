package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
	"github.com/saransh1220/portal-notify/internal/modules/notification/infrastructure/metrics"
)

// EventNotification is the only frame name the transport decodes.
const EventNotification = "notification"

// Frame is one raw server-pushed event. Truncated frames exceeded the
// decoder's size limit and carry no data.
type Frame struct {
	Name      string
	ID        string
	Data      []byte
	Truncated bool
}

// Conn is an open push stream. Next blocks until a frame arrives or the
// stream fails; Close unblocks a pending Next.
type Conn interface {
	Next() (Frame, error)
	Close() error
}

// Dialer opens a push stream authenticated with token.
type Dialer interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// TokenSource supplies the bearer credential at connect time.
type TokenSource interface {
	Token() (string, error)
}

// Handler receives decoded notifications in arrival order.
type Handler func(domain.Notification)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transport keeps one authenticated push stream alive. It owns at most one
// live Conn and at most one pending reconnect timer; every Connect or
// Disconnect bumps a generation counter so readers and timers belonging to
// an earlier connection become inert.
type Transport struct {
	dialer  Dialer
	tokens  TokenSource
	handler Handler
	logger  zerolog.Logger
	metrics *metrics.Collectors

	mu      sync.Mutex
	state   State
	gen     uint64
	conn    Conn
	cancel  context.CancelFunc
	timer   *time.Timer
	backoff *Backoff

	// afterFunc is time.AfterFunc outside tests.
	afterFunc func(time.Duration, func()) *time.Timer
}

func NewTransport(dialer Dialer, tokens TokenSource, handler Handler, backoff BackoffConfig, logger zerolog.Logger, m *metrics.Collectors) *Transport {
	if handler == nil {
		handler = func(domain.Notification) {}
	}
	return &Transport{
		dialer:    dialer,
		tokens:    tokens,
		handler:   handler,
		logger:    logger,
		metrics:   m,
		backoff:   NewBackoff(backoff),
		afterFunc: time.AfterFunc,
	}
}

// Connect opens the stream. Without a credential it does nothing. An
// existing connection or pending reconnect is torn down first.
func (t *Transport) Connect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connectLocked()
}

// Disconnect closes the stream and cancels any pending reconnect. It is
// idempotent and safe to call when not connected.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.teardownLocked()
	t.logger.Debug().Msg("stream disconnected")
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// NextDelay reports the delay the next failure would schedule.
func (t *Transport) NextDelay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backoff.Peek()
}

func (t *Transport) connectLocked() {
	t.teardownLocked()

	token, err := t.tokens.Token()
	if err != nil || token == "" {
		t.logger.Debug().Err(err).Msg("no credential, stream not started")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.state = StateConnecting
	gen := t.gen
	go t.run(ctx, gen, token)
}

// teardownLocked invalidates the current generation, closes the live
// connection and stops the reconnect timer.
func (t *Transport) teardownLocked() {
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			t.logger.Debug().Err(err).Msg("closing stream")
		}
		t.conn = nil
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.state = StateDisconnected
}

func (t *Transport) run(ctx context.Context, gen uint64, token string) {
	conn, err := t.dialer.Dial(ctx, token)
	if err != nil {
		t.fail(gen, err)
		return
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.state = StateConnected
	t.backoff.Reset()
	t.mu.Unlock()

	t.metrics.Connected()
	t.logger.Info().Msg("stream connected")

	for {
		frame, err := conn.Next()
		if err != nil {
			t.fail(gen, err)
			return
		}
		if !t.current(gen) {
			return
		}
		t.dispatch(frame)
	}
}

func (t *Transport) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen
}

func (t *Transport) dispatch(frame Frame) {
	if frame.Name != EventNotification {
		t.metrics.Event(metrics.ResultIgnored)
		return
	}
	if frame.Truncated {
		t.metrics.Event(metrics.ResultMalformed)
		t.logger.Error().Str("event_id", frame.ID).Msg("dropping oversized notification")
		return
	}
	n, err := domain.DecodeNotification(frame.Data)
	if err != nil {
		t.metrics.Event(metrics.ResultMalformed)
		t.logger.Error().Err(err).Str("event_id", frame.ID).Msg("dropping malformed notification")
		return
	}
	t.metrics.Event(metrics.ResultDelivered)
	t.handler(n)
}

// fail tears down the connection of generation gen and schedules a
// reconnect. Failures from a stale generation are ignored: that connection
// was already replaced or deliberately closed.
func (t *Transport) fail(gen uint64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}

	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.state = StateDisconnected

	delay := t.backoff.Next()
	t.metrics.Failed(delay.Seconds())
	t.logger.Warn().Err(err).Dur("retry_in", delay).Msg("stream lost, reconnecting")

	t.gen++
	next := t.gen
	t.timer = t.afterFunc(delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if next != t.gen {
			return
		}
		t.timer = nil
		t.connectLocked()
	})
}
