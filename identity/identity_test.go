package identity

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePublicKeyHexAndBech32Agree(t *testing.T) {
	signer, err := GenerateLocalSigner()
	require.NoError(t, err)
	pub := signer.PublicKey()

	fromHex, err := NormalizePublicKey(hex.EncodeToString(pub[:]))
	require.NoError(t, err)
	assert.Equal(t, pub, fromHex)

	data, err := bech32.ConvertBits(pub[:], 8, 5, true)
	require.NoError(t, err)
	encoded, err := bech32.Encode(hrpPublic, data)
	require.NoError(t, err)

	fromBech32, err := NormalizePublicKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, pub, fromBech32)
}

func TestNormalizeSecretKeyRejectsOddLengthHex(t *testing.T) {
	_, err := NormalizeSecretKey("abc")
	assert.Error(t, err)
}

func TestNormalizePublicKeyBytesRejectsWrongLength(t *testing.T) {
	_, err := NormalizePublicKeyBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestLocalSignerSignAndConversationKeyRoundTrip(t *testing.T) {
	a, err := GenerateLocalSigner()
	require.NoError(t, err)
	b, err := GenerateLocalSigner()
	require.NoError(t, err)

	var hash [32]byte
	copy(hash[:], []byte("deterministic test hash of 32 b"))

	ctx := context.Background()
	sig, err := a.Sign(ctx, hash)
	require.NoError(t, err)
	assert.NotZero(t, sig)

	kAB, err := a.ConversationKey(ctx, b.PublicKey())
	require.NoError(t, err)
	kBA, err := b.ConversationKey(ctx, a.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, kAB, kBA)
}

func TestSaveAndLoadEncryptedKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity.key")

	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i)
	}

	require.NoError(t, SaveEncryptedKeyFile(path, secret, "correct horse battery staple"))

	loaded, err := LoadEncryptedKeyFile(path, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, secret, loaded)

	_, err = LoadEncryptedKeyFile(path, "wrong passphrase")
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
