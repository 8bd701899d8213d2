package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/nostrlocator/identity"
)

func mustSigner(t *testing.T) *identity.LocalSigner {
	t.Helper()
	s, err := identity.GenerateLocalSigner()
	require.NoError(t, err)
	return s
}

func TestBuildPublicVerifyAndDecryptRoundTrip(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	payloadBytes := []byte(`{"v":1,"ttl":600,"updated_at":1000,"endpoints":[]}`)

	ev, err := BuildPublic(ctx, signer, payloadBytes, Options{Identifier: "addr"}, time.Unix(1000, 0))
	require.NoError(t, err)

	assert.True(t, Verify(ev))
	assert.Equal(t, "addr", ev.Identifier())

	plaintext, err := Decrypt(ctx, ev, nil)
	require.NoError(t, err)
	assert.Equal(t, payloadBytes, plaintext)
}

func TestVerifyRejectsMutatedEvent(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	ev, err := BuildPublic(ctx, signer, []byte("payload"), Options{}, time.Unix(1000, 0))
	require.NoError(t, err)

	ev.CreatedAt++
	assert.False(t, Verify(ev))
}

func TestBuildSelfContentDoesNotStartWithBrace(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	ev, err := BuildSelf(ctx, signer, []byte("secret payload"), Options{}, time.Unix(1000, 0))
	require.NoError(t, err)

	assert.NotEqual(t, byte('{'), ev.Content[0])

	plaintext, err := Decrypt(ctx, ev, signer)
	require.NoError(t, err)
	assert.Equal(t, "secret payload", string(plaintext))
}

func TestBuildTargetedOnlyRecipientDecrypts(t *testing.T) {
	ctx := context.Background()
	a := mustSigner(t)
	b := mustSigner(t)
	c := mustSigner(t)

	ev, err := BuildTargeted(ctx, a, b.PublicKey(), []byte("hello B"), Options{}, time.Unix(1000, 0))
	require.NoError(t, err)

	plaintext, err := Decrypt(ctx, ev, b)
	require.NoError(t, err)
	assert.Equal(t, "hello B", string(plaintext))

	_, err = Decrypt(ctx, ev, c)
	assert.Error(t, err)
}

func TestBuildWrappedEveryRecipientRecoversOthersDoNot(t *testing.T) {
	ctx := context.Background()
	publisher := mustSigner(t)
	b := mustSigner(t)
	c := mustSigner(t)
	outsider := mustSigner(t)

	payloadBytes := []byte(`{"v":1,"endpoints":[{"type":"ws","url":"ws://[2001:db8::1]:9999"}]}`)
	ev, err := BuildWrapped(ctx, publisher, [][32]byte{b.PublicKey(), c.PublicKey()}, payloadBytes, Options{}, time.Unix(1000, 0))
	require.NoError(t, err)

	assert.Contains(t, ev.Content, "wraps")
	assert.Contains(t, ev.Content, "ciphertext")
	assert.NotContains(t, ev.Content, "2001:db8")

	forB, err := Decrypt(ctx, ev, b)
	require.NoError(t, err)
	assert.Equal(t, payloadBytes, forB)

	forC, err := Decrypt(ctx, ev, c)
	require.NoError(t, err)
	assert.Equal(t, payloadBytes, forC)

	forOutsider, err := Decrypt(ctx, ev, outsider)
	require.NoError(t, err)
	assert.Nil(t, forOutsider)
}

func TestDecryptPublicWithNoCaller(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	ev, err := BuildPublic(ctx, signer, []byte(`{"v":1}`), Options{}, time.Unix(1000, 0))
	require.NoError(t, err)

	plaintext, err := Decrypt(ctx, ev, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(plaintext))
}

func TestExpirationTagRoundTrip(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	exp := int64(2000)
	ev, err := BuildPublic(ctx, signer, []byte("p"), Options{Expiration: &exp}, time.Unix(1000, 0))
	require.NoError(t, err)

	got, ok := ev.ExpirationUnix()
	require.True(t, ok)
	assert.Equal(t, exp, got)
}

func TestPrivateTagSet(t *testing.T) {
	ctx := context.Background()
	signer := mustSigner(t)
	ev, err := BuildPublic(ctx, signer, []byte("p"), Options{Private: true}, time.Unix(1000, 0))
	require.NoError(t, err)

	found := false
	for _, tag := range ev.Tags {
		if len(tag) == 2 && tag[0] == "private" && tag[1] == "true" {
			found = true
		}
	}
	assert.True(t, found)
}
