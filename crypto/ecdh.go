package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/hkdf"
)

// conversationKeySalt is a fixed domain-separation salt for the HKDF-Extract
// step, analogous to the fixed label session.DeriveSessionSeed hashes into
// its salt. Keeping it constant (rather than per-pair) is safe here because
// the ECDH shared secret itself is unique per (priv, peerPub) pair.
var conversationKeySalt = []byte("nostrlocator-conversation-key-v1")

// ConversationKey derives the 32-byte symmetric key shared between priv's
// owner and pub's owner: ECDH shared point's x-coordinate, fed through
// HKDF-Extract. Both directions (A using A's priv + B's pub, and B using B's
// priv + A's pub) yield the identical key since ECDH is commutative.
func ConversationKey(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) [32]byte {
	var shared secp256k1.JacobianPoint
	pub.AsJacobian(&shared)

	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&priv.Key, &shared, &result)
	result.ToAffine()

	sharedX := result.X.Bytes()

	prk := hkdf.Extract(sha256.New, sharedX[:], conversationKeySalt)

	var key [32]byte
	copy(key[:], prk)
	return key
}
