// Package metrics exposes Prometheus collectors for the resolver and
// publisher, an observability surface layered on top of the core
// resolve/publish flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles every metric the resolver/publisher/relay pool touch.
// A zero-value Collectors is unusable; use NewCollectors or Default.
type Collectors struct {
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	QueryLatency *prometheus.HistogramVec
	PublishTotal *prometheus.CounterVec
	DecryptFail  prometheus.Counter
}

// NewCollectors builds a fresh Collectors registered on reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in process code.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nostrlocator",
			Subsystem: "resolver",
			Name:      "cache_hits_total",
			Help:      "Resolver cache lookups that found a non-expired entry.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nostrlocator",
			Subsystem: "resolver",
			Name:      "cache_misses_total",
			Help:      "Resolver cache lookups that required a relay query.",
		}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nostrlocator",
			Subsystem: "resolver",
			Name:      "relay_query_latency_seconds",
			Help:      "Latency of a single relay's contribution to a publish, query, or get call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"relay"}),
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nostrlocator",
			Subsystem: "publisher",
			Name:      "publish_total",
			Help:      "Publish outcomes per relay.",
		}, []string{"relay", "outcome"}),
		DecryptFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nostrlocator",
			Subsystem: "resolver",
			Name:      "decrypt_failures_total",
			Help:      "Decryption failures for callers that were an intended recipient.",
		}),
	}

	reg.MustRegister(c.CacheHits, c.CacheMisses, c.QueryLatency, c.PublishTotal, c.DecryptFail)
	return c
}

// ObserveQueryLatency records how long relayURL took to respond to a
// publish, query, or get call.
func (c *Collectors) ObserveQueryLatency(relayURL string, d time.Duration) {
	if c == nil {
		return
	}
	c.QueryLatency.WithLabelValues(relayURL).Observe(d.Seconds())
}

// RecordPublishOutcome increments the publish counter for relayURL/outcome
// ("ok" or "error").
func (c *Collectors) RecordPublishOutcome(relayURL string, ok bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.PublishTotal.WithLabelValues(relayURL, outcome).Inc()
}

// RecordCacheLookup increments the hit or miss counter.
func (c *Collectors) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// RecordDecryptFailure increments the decrypt-failure counter.
func (c *Collectors) RecordDecryptFailure() {
	if c == nil {
		return
	}
	c.DecryptFail.Inc()
}

// Default returns a Collectors registered on prometheus.DefaultRegisterer,
// for callers that don't need an isolated registry.
func Default() *Collectors { return NewCollectors(prometheus.DefaultRegisterer) }
