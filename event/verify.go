package event

import (
	"encoding/hex"

	loccrypto "github.com/sage-x-project/nostrlocator/crypto"
)

// Verify recomputes id from the canonical serialization and checks the
// Schnorr signature against pubkey. Any mismatch — bad hex,
// wrong id, invalid signature — returns false; Verify never returns an
// error because a failing verification is meant to be silently dropped by
// its caller, not propagated.
func Verify(ev Event) bool {
	pubkeyBytes, err := hex.DecodeString(ev.PubKey)
	if err != nil || len(pubkeyBytes) != 32 {
		return false
	}

	expectedID, err := computeID(ev.PubKey, ev.CreatedAt, ev.Kind, ev.Tags, ev.Content)
	if err != nil {
		return false
	}
	if hex.EncodeToString(expectedID[:]) != ev.ID {
		return false
	}

	sigBytes, err := hex.DecodeString(ev.Sig)
	if err != nil || len(sigBytes) != 64 {
		return false
	}
	var sig [64]byte
	copy(sig[:], sigBytes)

	return loccrypto.Verify(pubkeyBytes, expectedID, sig)
}
