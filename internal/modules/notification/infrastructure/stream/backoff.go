package stream

import "time"

const (
	DefaultInitialDelay = 3 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 1.5
)

// BackoffConfig bounds reconnection attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Backoff hands out non-decreasing delays for consecutive failures, capped
// at MaxDelay, and returns to InitialDelay after Reset. It is not safe for
// concurrent use; the Transport guards it with its own mutex.
type Backoff struct {
	cfg     BackoffConfig
	current time.Duration
}

func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	return &Backoff{cfg: cfg, current: cfg.InitialDelay}
}

// Next returns the delay to wait before the upcoming attempt and grows the
// delay for the attempt after it.
func (b *Backoff) Next() time.Duration {
	d := b.current
	grown := time.Duration(float64(b.current) * b.cfg.Multiplier)
	if grown > b.cfg.MaxDelay || grown < b.current {
		grown = b.cfg.MaxDelay
	}
	b.current = grown
	return d
}

// Reset returns the delay to its floor; called on every successful open.
func (b *Backoff) Reset() {
	b.current = b.cfg.InitialDelay
}

// Peek returns the delay Next would hand out without advancing.
func (b *Backoff) Peek() time.Duration {
	return b.current
}
