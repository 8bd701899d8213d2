package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/nostrlocator/config"
	"github.com/sage-x-project/nostrlocator/event"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/internal/metrics"
	"github.com/sage-x-project/nostrlocator/payload"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

func mustSigner(t *testing.T) *identity.LocalSigner {
	t.Helper()
	s, err := identity.GenerateLocalSigner()
	require.NoError(t, err)
	return s
}

func newTestPublisher(pool relaypool.Pool) *Publisher {
	cfg := config.PublisherConfig{
		BootstrapRelays: []string{"wss://a", "wss://b"},
		Timeout:         time.Second,
	}
	return New(cfg, pool, metrics.NewCollectors(prometheus.NewRegistry()))
}

func samplePayload() payload.Payload {
	return payload.Payload{
		V:         1,
		TTL:       3600,
		UpdatedAt: time.Now().Unix(),
		Endpoints: []payload.Endpoint{{Type: "ws", URL: "wss://a.example"}},
	}
}

func TestPublishPublicSucceedsOnAllRelays(t *testing.T) {
	signer := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pub := newTestPublisher(pool)
	defer pub.Close()

	res, err := pub.Publish(context.Background(), signer, Request{Mode: ModePublic, Payload: samplePayload()}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Success, 2)
	assert.Empty(t, res.Failed)
	assert.True(t, event.Verify(res.Event))
}

func TestPublishPartialFailureStillSucceeds(t *testing.T) {
	signer := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pool.Unreachable["wss://b"] = true
	pub := newTestPublisher(pool)
	defer pub.Close()

	res, err := pub.Publish(context.Background(), signer, Request{Mode: ModePublic, Payload: samplePayload()}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://a"}, res.Success)
	assert.Equal(t, []string{"wss://b"}, res.Failed)
}

func TestPublishFailsWhenEveryRelayFails(t *testing.T) {
	signer := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pool.Unreachable["wss://a"] = true
	pool.Unreachable["wss://b"] = true
	pub := newTestPublisher(pool)
	defer pub.Close()

	_, err := pub.Publish(context.Background(), signer, Request{Mode: ModePublic, Payload: samplePayload()}, nil)
	require.Error(t, err)
}

func TestPublishRejectsInvalidPayload(t *testing.T) {
	signer := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pub := newTestPublisher(pool)
	defer pub.Close()

	invalid := samplePayload()
	invalid.Endpoints = nil
	_, err := pub.Publish(context.Background(), signer, Request{Mode: ModePublic, Payload: invalid}, nil)
	require.Error(t, err)
}

func TestPublishTargetedProducesDecryptableEvent(t *testing.T) {
	signer := mustSigner(t)
	recipient := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pub := newTestPublisher(pool)
	defer pub.Close()

	res, err := pub.Publish(context.Background(), signer, Request{
		Mode:      ModeTargeted,
		Payload:   samplePayload(),
		Recipient: recipient.PublicKey(),
	}, nil)
	require.NoError(t, err)

	plaintext, err := event.Decrypt(context.Background(), res.Event, recipient)
	require.NoError(t, err)
	encoded, err := payload.Encode(samplePayload())
	require.NoError(t, err)
	assert.JSONEq(t, string(encoded), string(plaintext))
}

func TestPublishWrappedReachesEveryRecipient(t *testing.T) {
	signer := mustSigner(t)
	b := mustSigner(t)
	c := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pub := newTestPublisher(pool)
	defer pub.Close()

	res, err := pub.Publish(context.Background(), signer, Request{
		Mode:       ModeWrapped,
		Payload:    samplePayload(),
		Recipients: [][32]byte{b.PublicKey(), c.PublicKey()},
	}, nil)
	require.NoError(t, err)

	for _, recipient := range []identity.Signer{b, c} {
		plaintext, err := event.Decrypt(context.Background(), res.Event, recipient)
		require.NoError(t, err)
		require.NotNil(t, plaintext)
	}
}

func TestPublishUsesExplicitRelaysOverBootstrap(t *testing.T) {
	signer := mustSigner(t)
	pool := relaypool.NewFake(nil)
	pub := newTestPublisher(pool)
	defer pub.Close()

	res, err := pub.Publish(context.Background(), signer, Request{Mode: ModePublic, Payload: samplePayload()}, []string{"wss://only"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wss://only"}, res.Success)
}
