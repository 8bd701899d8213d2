package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sage-x-project/nostrlocator/config"
	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

const testRelay = "wss://relay.test"

func testRegistry() *prometheus.Registry { return prometheus.NewRegistry() }

func mustSigner(t *testing.T) *identity.LocalSigner {
	t.Helper()
	s, err := identity.GenerateLocalSigner()
	require.NoError(t, err)
	return s
}

func newTestResolver(pool relaypool.Pool) *Resolver {
	cfg := config.ResolverConfig{BootstrapRelays: []string{testRelay}, Timeout: time.Second}
	return New(cfg, pool, metrics.NewCollectors(testRegistry()))
}

func newTestResolverWithTimeout(pool relaypool.Pool, timeout time.Duration) *Resolver {
	cfg := config.ResolverConfig{BootstrapRelays: []string{testRelay}, Timeout: timeout}
	return New(cfg, pool, metrics.NewCollectors(testRegistry()))
}

func freshPayload() payload.Payload {
	return payload.Payload{
		V:         1,
		TTL:       3600,
		UpdatedAt: time.Now().Unix(),
		Endpoints: []payload.Endpoint{{Type: "ws", URL: "wss://a.example"}},
	}
}

func TestResolvePublicRoundTrip(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)

	ev, err := event.BuildPublic(ctx, signer, body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)

	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Endpoints, got.Endpoints)
}

func TestResolveCacheHitAvoidsSecondQuery(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildPublic(ctx, signer, body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()

	target := identity.PublicKeyHex(signer.PublicKey())
	first, err := r.Resolve(ctx, target, nil, "", Options{})
	require.NoError(t, err)
	require.NotNil(t, first)

	// Make the relay unreachable; a cache hit must still succeed.
	pool.Unreachable[testRelay] = true
	second, err := r.Resolve(ctx, target, nil, "", Options{})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.Endpoints, second.Endpoints)
}

func TestResolveReplaceableLatestWins(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)

	older := freshPayload()
	older.Notes = "older"
	olderBody, err := payload.Encode(older)
	require.NoError(t, err)
	olderEv, err := event.BuildPublic(ctx, signer, olderBody, event.Options{}, time.Unix(1000, 0))
	require.NoError(t, err)

	newer := freshPayload()
	newer.Notes = "newer"
	newerBody, err := payload.Encode(newer)
	require.NoError(t, err)
	newerEv, err := event.BuildPublic(ctx, signer, newerBody, event.Options{}, time.Unix(2000, 0))
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, olderEv)
	pool.Seed(testRelay, newerEv)

	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "newer", got.Notes)
}

func TestResolveExpiredPayloadNonStrictReturnsUncached(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)

	p := payload.Payload{
		V:         1,
		TTL:       1,
		UpdatedAt: time.Now().Add(-time.Hour).Unix(),
		Endpoints: []payload.Endpoint{{Type: "ws", URL: "wss://a.example"}},
	}
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildPublic(ctx, signer, body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.NoError(t, err)
	require.NotNil(t, got)

	// A second lookup must re-query rather than serve from cache: an
	// expired payload is never cached.
	pool.Unreachable[testRelay] = true
	missing, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestResolveExpiredPayloadStrictReturnsNil(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)

	p := payload.Payload{
		V:         1,
		TTL:       1,
		UpdatedAt: time.Now().Add(-time.Hour).Unix(),
		Endpoints: []payload.Endpoint{{Type: "ws", URL: "wss://a.example"}},
	}
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildPublic(ctx, signer, body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{Strict: true})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveIdentifierMismatchReturnsNil(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildPublic(ctx, signer, body, event.Options{Identifier: "other"}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "addr", Options{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveLatestIgnoresIdentifier(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildPublic(ctx, signer, body, event.Options{Identifier: "other"}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.ResolveLatest(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, Options{})
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestResolveTargetedWrongCallerGetsNil(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	recipient := mustSigner(t)
	outsider := mustSigner(t)

	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildTargeted(ctx, signer, recipient.PublicKey(), body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()

	target := identity.PublicKeyHex(signer.PublicKey())
	got, err := r.Resolve(ctx, target, outsider, "", Options{})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, strictErr := r.Resolve(ctx, target, outsider, "", Options{Strict: true})
	assert.Error(t, strictErr)
}

func TestResolveURLTransformerAppliesAfterFreshness(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)
	ev, err := event.BuildPublic(ctx, signer, body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(testRelay, ev)
	r := newTestResolver(pool)
	defer r.Close()
	r.SetURLTransformer(func(ep payload.Endpoint) payload.Endpoint {
		ep.URL = "transformed:" + ep.URL
		return ep
	})

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "transformed:wss://a.example", got.Endpoints[0].URL)
}

func TestResolveNoMatchingEventReturnsNil(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)

	pool := relaypool.NewFake(nil)
	r := newTestResolver(pool)
	defer r.Close()

	got, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveTimeoutSurfacesTimeoutError(t *testing.T) {
	signer := mustSigner(t)
	r := newTestResolverWithTimeout(&blockingPool{}, time.Millisecond)
	defer r.Close()

	ctx := context.Background()
	_, err := r.Resolve(ctx, identity.PublicKeyHex(signer.PublicKey()), nil, "", Options{})
	require.Error(t, err)
}

// blockingPool's Query never returns, to exercise the resolver's own
// deadline handling independently of context plumbing inside a real pool.
type blockingPool struct{}

func (blockingPool) Publish(ctx context.Context, relays []string, ev event.Event) []relaypool.PublishResult {
	return nil
}
func (blockingPool) Query(ctx context.Context, relays []string, filter relaypool.Filter) ([]event.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (blockingPool) Get(ctx context.Context, relays []string, filter relaypool.Filter) (*event.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (blockingPool) Close([]string) error { return nil }
