package event

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	loccrypto "github.com/sage-x-project/nostrlocator/crypto"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/locerr"
)

// Decrypt classifies an event's content by
// shape, then — for modes that need it — derives the right conversation
// key from caller and decrypts. A nil return with a nil error means "not
// an error, but this caller isn't a recipient" (Wrapped mode, entry
// absent); a non-nil error means a recipient's own decryption failed.
func Decrypt(ctx context.Context, ev Event, caller identity.Signer) ([]byte, error) {
	if looksWrapped(ev.Content) {
		return decryptWrapped(ctx, ev, caller)
	}
	if caller != nil && !strings.HasPrefix(ev.Content, "{") {
		return decryptDirect(ctx, ev, caller)
	}
	return []byte(ev.Content), nil
}

func decryptWrapped(ctx context.Context, ev Event, caller identity.Signer) ([]byte, error) {
	w, err := decodeWrappedContent(ev.Content)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, nil
	}

	myHex := identity.PublicKeyHex(caller.PublicKey())
	wrapEntry, ok := w.Wraps[myHex]
	if !ok {
		return nil, nil
	}

	eventPub, err := decodeEventPubKey(ev.PubKey)
	if err != nil {
		return nil, err
	}
	convKey, err := caller.ConversationKey(ctx, eventPub)
	if err != nil {
		return nil, locerr.NewDecryptionError("derive wrap conversation key", err)
	}

	sessionKeyHex, err := loccrypto.NewChannel().Decrypt(convKey, wrapEntry)
	if err != nil {
		return nil, locerr.NewDecryptionError("decrypt wrap entry", err)
	}
	sessionKeyBytes, err := hex.DecodeString(string(sessionKeyHex))
	if err != nil || len(sessionKeyBytes) != 32 {
		return nil, locerr.NewDecryptionError("malformed session key", err)
	}
	sessionPriv := secp256k1.PrivKeyFromBytes(sessionKeyBytes)
	sessionConvKey := loccrypto.ConversationKey(sessionPriv, sessionPriv.PubKey())

	plaintext, err := loccrypto.NewChannel().Decrypt(sessionConvKey, w.Ciphertext)
	if err != nil {
		return nil, locerr.NewDecryptionError("decrypt wrapped payload", err)
	}
	return plaintext, nil
}

func decryptDirect(ctx context.Context, ev Event, caller identity.Signer) ([]byte, error) {
	eventPub, err := decodeEventPubKey(ev.PubKey)
	if err != nil {
		return nil, err
	}
	convKey, err := caller.ConversationKey(ctx, eventPub)
	if err != nil {
		return nil, locerr.NewDecryptionError("derive conversation key", err)
	}
	plaintext, err := loccrypto.NewChannel().Decrypt(convKey, ev.Content)
	if err != nil {
		return nil, locerr.NewDecryptionError("decrypt content", err)
	}
	return plaintext, nil
}

func decodeEventPubKey(pubkeyHex string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(pubkeyHex)
	if err != nil || len(raw) != 32 {
		return out, locerr.NewDecryptionError("invalid event pubkey", err)
	}
	copy(out[:], raw)
	return out, nil
}
