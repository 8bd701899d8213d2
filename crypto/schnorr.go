// Package crypto implements the cryptographic primitives the identity and
// event packages build on: BIP-340-style Schnorr signing/verification and
// a NIP-44-shaped authenticated symmetric channel keyed by an ECDH-derived
// conversation key. Nothing here is specific to locator payloads; it is the
// small "two interfaces" surface the design notes describe as the
// out-of-scope cryptographic collaborator, given a concrete implementation.
package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// XOnlyPubKeySize is the length of a BIP-340 x-only public key.
const XOnlyPubKeySize = 32

// ParseXOnlyPublicKey parses a 32-byte x-only public key into a usable point,
// assuming the conventional even-Y representative per BIP-340's public key
// conversion. Returns an error if the bytes don't lie on the curve.
func ParseXOnlyPublicKey(xOnly []byte) (*secp256k1.PublicKey, error) {
	if len(xOnly) != XOnlyPubKeySize {
		return nil, errInvalidKeyLen(len(xOnly))
	}
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, xOnly...)
	return secp256k1.ParsePubKey(compressed)
}

// SerializeXOnlyPublicKey drops the sign byte, returning the 32-byte x-only
// encoding used in event pubkey fields.
func SerializeXOnlyPublicKey(pub *secp256k1.PublicKey) [XOnlyPubKeySize]byte {
	var out [XOnlyPubKeySize]byte
	copy(out[:], pub.SerializeCompressed()[1:])
	return out
}

// Sign produces a 64-byte Schnorr signature over a 32-byte message hash.
func Sign(priv *secp256k1.PrivateKey, hash [32]byte) ([64]byte, error) {
	var out [64]byte
	sig, err := schnorr.Sign(priv, hash[:])
	if err != nil {
		return out, err
	}
	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify checks a 64-byte Schnorr signature over a 32-byte message hash
// against an x-only public key. Never returns an error for an invalid
// signature: it returns false, so the caller never has to distinguish
// malformed-signature from
// wrong-signature.
func Verify(xOnlyPub []byte, hash [32]byte, sig [64]byte) bool {
	pub, err := ParseXOnlyPublicKey(xOnlyPub)
	if err != nil {
		return false
	}
	parsed, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false
	}
	return parsed.Verify(hash[:], pub)
}

type errInvalidKeyLen int

func (e errInvalidKeyLen) Error() string {
	return fmt.Sprintf("crypto: x-only public key must be 32 bytes, got %d", int(e))
}
