package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	loccrypto "github.com/sage-x-project/nostrlocator/crypto"
	"github.com/sage-x-project/nostrlocator/locerr"
)

// Signer is the minimal capability higher components are granted: a
// public key, the ability to sign an already-hashed event id, and ECDH
// conversation-key derivation against a peer. Operating on the 32-byte id
// hash rather than a structured event keeps this package independent of the
// event package, avoiding the cycle a literal "sign(unsigned_event)" method
// would create (event needs a Signer; a Signer must not need event).
// Implementations never expose raw secret bytes to callers.
type Signer interface {
	// PublicKey returns this identity's canonical x-only public key.
	PublicKey() [32]byte
	// Sign produces a 64-byte Schnorr signature over hash.
	Sign(ctx context.Context, hash [32]byte) ([64]byte, error)
	// ConversationKey derives the 32-byte symmetric key shared with peerPub.
	ConversationKey(ctx context.Context, peerPub [32]byte) ([32]byte, error)
}

// LocalSigner holds the secret scalar in process memory and signs/derives
// synchronously. It is the default Signer implementation.
type LocalSigner struct {
	priv *secp256k1.PrivateKey
	pub  [32]byte
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner wraps an already-parsed secret key.
func NewLocalSigner(priv *secp256k1.PrivateKey) *LocalSigner {
	return &LocalSigner{priv: priv, pub: loccrypto.SerializeXOnlyPublicKey(priv.PubKey())}
}

// GenerateLocalSigner creates a fresh identity with a cryptographically
// random secret scalar.
func GenerateLocalSigner() (*LocalSigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, locerr.NewLibraryError("generate secret key", err)
	}
	return NewLocalSigner(priv), nil
}

// NewLocalSignerFromInput accepts a hex or bech32 nsec secret key string.
// Raw 32-byte secrets go through NormalizeSecretKeyBytes and NewLocalSigner.
func NewLocalSignerFromInput(input string) (*LocalSigner, error) {
	priv, err := NormalizeSecretKey(input)
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(priv), nil
}

func (s *LocalSigner) PublicKey() [32]byte { return s.pub }

func (s *LocalSigner) Sign(_ context.Context, hash [32]byte) ([64]byte, error) {
	return loccrypto.Sign(s.priv, hash)
}

func (s *LocalSigner) ConversationKey(_ context.Context, peerPub [32]byte) ([32]byte, error) {
	pub, err := loccrypto.ParseXOnlyPublicKey(peerPub[:])
	if err != nil {
		return [32]byte{}, locerr.NewArgumentError("invalid peer public key", err)
	}
	return loccrypto.ConversationKey(s.priv, pub), nil
}

// GenerateSessionKey produces a fresh random 32-byte scalar for the
// Wrapped content mode's per-publish session key.
func GenerateSessionKey() ([32]byte, error) {
	var sessionKey [32]byte
	if _, err := io.ReadFull(rand.Reader, sessionKey[:]); err != nil {
		return sessionKey, fmt.Errorf("identity: generate session key: %w", err)
	}
	return sessionKey, nil
}

// SessionConversationKey derives conv(sessionSK, sessionPK) — the
// self-conversation key the Wrapped content mode uses for its inner
// ciphertext — from the same session secret that gets hex-encoded and
// sealed into each recipient's wrap entry, so the two sides agree.
func SessionConversationKey(sessionSecret [32]byte) ([32]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(sessionSecret[:])
	return loccrypto.ConversationKey(priv, priv.PubKey()), nil
}
