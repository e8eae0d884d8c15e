package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DefaultSequence(t *testing.T) {
	b := NewBackoff(BackoffConfig{})

	want := []time.Duration{
		3 * time.Second,
		4500 * time.Millisecond,
		6750 * time.Millisecond,
		10125 * time.Millisecond,
		15187500 * time.Microsecond,
		22781250 * time.Microsecond,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.Next(), "attempt %d", i+1)
	}
}

func TestBackoff_MonotonicUpToCeiling(t *testing.T) {
	b := NewBackoff(BackoffConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second, Multiplier: 1.5})

	prev := time.Duration(0)
	for i := 0; i < 50; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, time.Second)
		prev = d
	}
	assert.Equal(t, time.Second, prev)
}

func TestBackoff_ResetReturnsToFloor(t *testing.T) {
	b := NewBackoff(BackoffConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2})
	b.Next()
	b.Next()
	assert.Equal(t, 400*time.Millisecond, b.Peek())

	b.Reset()
	assert.Equal(t, 100*time.Millisecond, b.Next())
}

func TestNewBackoff_SanitizesConfig(t *testing.T) {
	b := NewBackoff(BackoffConfig{InitialDelay: 5 * time.Second, MaxDelay: time.Second, Multiplier: 0.5})
	assert.Equal(t, 5*time.Second, b.Next())
	assert.Equal(t, 5*time.Second, b.Next())
}

func TestNewBackoff_ZeroCeilingUsesDefault(t *testing.T) {
	b := NewBackoff(BackoffConfig{InitialDelay: 20 * time.Second, Multiplier: 2})
	assert.Equal(t, 20*time.Second, b.Next())
	assert.Equal(t, DefaultMaxDelay, b.Next())
	assert.Equal(t, DefaultMaxDelay, b.Next())
}
