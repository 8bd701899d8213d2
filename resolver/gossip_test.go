package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/nostrlocator/config"
	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

const (
	gossipBootstrapRelay  = "wss://bootstrap.test"
	gossipDiscoveredRelay = "wss://discovered.test"
)

// TestGossipDiscoveryScenario reproduces spec §8 scenario 5: the bootstrap
// relay holds only the author's kind-10002 relay-list event pointing at a
// second relay; the actual kind-30058 locator record lives only on that
// second relay. gossip=true must widen the relay set and find it;
// gossip=false must stay on the bootstrap relay alone and find nothing.
func TestGossipDiscoveryScenario(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	hexPubkey := identity.PublicKeyHex(signer.PublicKey())

	relayListEv, err := event.BuildRelayList(ctx, signer, []string{gossipDiscoveredRelay}, time.Now())
	require.NoError(t, err)

	p := freshPayload()
	body, err := payload.Encode(p)
	require.NoError(t, err)
	locatorEv, err := event.BuildPublic(ctx, signer, body, event.Options{}, time.Now())
	require.NoError(t, err)

	pool := relaypool.NewFake(nil)
	pool.Seed(gossipBootstrapRelay, relayListEv)
	pool.Seed(gossipDiscoveredRelay, locatorEv)

	t.Run("gossip disabled stays on bootstrap and finds nothing", func(t *testing.T) {
		cfg := config.ResolverConfig{BootstrapRelays: []string{gossipBootstrapRelay}, Timeout: time.Second}
		r := New(cfg, pool, metrics.NewCollectors(testRegistry()))
		defer r.Close()

		got, err := r.Resolve(ctx, hexPubkey, nil, "", Options{Gossip: false})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("gossip enabled widens the relay set and finds the record", func(t *testing.T) {
		cfg := config.ResolverConfig{BootstrapRelays: []string{gossipBootstrapRelay}, Timeout: time.Second}
		r := New(cfg, pool, metrics.NewCollectors(testRegistry()))
		defer r.Close()

		got, err := r.Resolve(ctx, hexPubkey, nil, "", Options{Gossip: true})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, p.Endpoints, got.Endpoints)
	})
}
