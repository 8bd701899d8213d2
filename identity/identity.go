// Package identity implements normalizing key material from any of the
// three accepted input forms (hex, raw bytes, bech32) and the Signer
// capability higher components depend on without ever touching raw secret
// bytes themselves.
package identity

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	loccrypto "github.com/sage-x-project/nostrlocator/crypto"
	"github.com/sage-x-project/nostrlocator/locerr"
)

const (
	hrpSecret = "nsec"
	hrpPublic = "npub"

	keyByteLen = 32
)

// NormalizePublicKey accepts a hex string (64 hex chars, x-only) or a
// bech32 "npub1..." string and returns the canonical 32-byte x-only form.
func NormalizePublicKey(input string) ([32]byte, error) {
	var out [32]byte
	if len(input) > 4 && input[:4] == hrpPublic {
		decoded, err := decodeBech32(hrpPublic, input)
		if err != nil {
			return out, err
		}
		return NormalizePublicKeyBytes(decoded)
	}
	raw, err := decodeHex(input)
	if err != nil {
		return out, err
	}
	return NormalizePublicKeyBytes(raw)
}

// NormalizePublicKeyBytes validates raw public key bytes and returns the
// canonical x-only form, rejecting anything that doesn't decode to a point
// on the curve.
func NormalizePublicKeyBytes(raw []byte) ([32]byte, error) {
	var out [32]byte
	if len(raw) != keyByteLen {
		return out, locerr.NewArgumentError(fmt.Sprintf("public key must be %d bytes, got %d", keyByteLen, len(raw)), nil)
	}
	if _, err := loccrypto.ParseXOnlyPublicKey(raw); err != nil {
		return out, locerr.NewArgumentError("public key is not a valid curve point", err)
	}
	copy(out[:], raw)
	return out, nil
}

// NormalizeSecretKey accepts a hex string (64 hex chars) or a bech32
// "nsec1..." string and returns the parsed secret scalar.
func NormalizeSecretKey(input string) (*secp256k1.PrivateKey, error) {
	if len(input) > 4 && input[:4] == hrpSecret {
		decoded, err := decodeBech32(hrpSecret, input)
		if err != nil {
			return nil, err
		}
		return NormalizeSecretKeyBytes(decoded)
	}
	raw, err := decodeHex(input)
	if err != nil {
		return nil, err
	}
	return NormalizeSecretKeyBytes(raw)
}

// NormalizeSecretKeyBytes validates a raw 32-byte secret scalar.
func NormalizeSecretKeyBytes(raw []byte) (*secp256k1.PrivateKey, error) {
	if len(raw) != keyByteLen {
		return nil, locerr.NewArgumentError(fmt.Sprintf("secret key must be %d bytes, got %d", keyByteLen, len(raw)), nil)
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return priv, nil
}

// PublicKeyHex renders an x-only public key as lowercase hex, the form it
// appears in on the wire (event.pubkey, tags, wraps keys).
func PublicKeyHex(pub [32]byte) string { return hex.EncodeToString(pub[:]) }

func decodeHex(input string) ([]byte, error) {
	if len(input)%2 != 0 {
		return nil, locerr.NewArgumentError("hex-encoded key must have even length", nil)
	}
	raw, err := hex.DecodeString(input)
	if err != nil {
		return nil, locerr.NewArgumentError("invalid hex encoding", err)
	}
	return raw, nil
}

func decodeBech32(expectedHRP, input string) ([]byte, error) {
	hrp, data, err := bech32.Decode(input)
	if err != nil {
		return nil, locerr.NewArgumentError("invalid bech32 encoding", err)
	}
	if hrp != expectedHRP {
		return nil, locerr.NewArgumentError(fmt.Sprintf("unexpected bech32 prefix %q, want %q", hrp, expectedHRP), nil)
	}
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, locerr.NewArgumentError("invalid bech32 payload", err)
	}
	return converted, nil
}
