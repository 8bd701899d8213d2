package relaypool

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
)

func buildTestEvent(t *testing.T, createdAt int64) event.Event {
	t.Helper()
	signer, err := identity.GenerateLocalSigner()
	require.NoError(t, err)
	ev, err := event.BuildPublic(context.Background(), signer, []byte("payload"), event.Options{}, time.Unix(createdAt, 0))
	require.NoError(t, err)
	return ev
}

func TestFakePublishAndQuery(t *testing.T) {
	pool := NewFake(nil)
	ev := buildTestEvent(t, 1000)

	results := pool.Publish(context.Background(), []string{"wss://a", "wss://b"}, ev)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.OK)
	}

	got, err := pool.Query(context.Background(), []string{"wss://a"}, Filter{Kinds: []int{event.Kind}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
}

func TestFakeGetReturnsNewest(t *testing.T) {
	pool := NewFake(nil)
	signer, err := identity.GenerateLocalSigner()
	require.NoError(t, err)
	authorHex := identity.PublicKeyHex(signer.PublicKey())

	older, err := event.BuildPublic(context.Background(), signer, []byte("p1"), event.Options{}, time.Unix(1000, 0))
	require.NoError(t, err)
	newer, err := event.BuildPublic(context.Background(), signer, []byte("p2"), event.Options{}, time.Unix(1100, 0))
	require.NoError(t, err)

	pool.Seed("wss://a", older)
	pool.Seed("wss://a", newer)

	got, err := pool.Get(context.Background(), []string{"wss://a"}, Filter{Authors: []string{authorHex}})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
}

func TestFakePublishPartialFailure(t *testing.T) {
	pool := NewFake(nil)
	pool.Unreachable["wss://down"] = true
	ev := buildTestEvent(t, 1000)

	results := pool.Publish(context.Background(), []string{"wss://down", "wss://up"}, ev)
	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Error(t, results[0].Err)
	assert.True(t, results[1].OK)
}

func TestFakeRecordsQueryLatencyPerRelay(t *testing.T) {
	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)
	pool := NewFake(collectors)
	ev := buildTestEvent(t, 1000)
	pool.Seed("wss://a", ev)

	_, err := pool.Query(context.Background(), []string{"wss://a"}, Filter{Kinds: []int{event.Kind}})
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(collectors.QueryLatency, "nostrlocator_resolver_relay_query_latency_seconds"))
}
