package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)

	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.CacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.CacheMisses))
}

func TestRecordPublishOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)

	c.RecordPublishOutcome("wss://a", true)
	c.RecordPublishOutcome("wss://a", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.PublishTotal.WithLabelValues("wss://a", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.PublishTotal.WithLabelValues("wss://a", "error")))
}

func TestObserveQueryLatencyDoesNotPanicOnNil(t *testing.T) {
	var c *Collectors
	c.ObserveQueryLatency("wss://a", 10*time.Millisecond)
	c.RecordDecryptFailure()
}
