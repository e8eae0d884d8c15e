package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors_Record(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.Connected()
	c.Failed(4.5)
	c.Event(ResultDelivered)
	c.Event(ResultMalformed)
	c.Event(ResultMalformed)
	c.ListenerPanicked()
	c.Unread(3)
	c.Sync("mark_read", true)
	c.Sync("mark_read", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StreamConnects))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StreamFailures))
	assert.Equal(t, 4.5, testutil.ToFloat64(c.ReconnectDelay))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StreamEvents.WithLabelValues(ResultMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ListenerPanics))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.UnreadCount))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SyncRequests.WithLabelValues("mark_read", "error")))
}

func TestCollectors_NilIsNoop(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.Connected()
		c.Failed(1)
		c.Event(ResultIgnored)
		c.ListenerPanicked()
		c.Unread(1)
		c.Sync("fetch", true)
	})
}
