package event

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	loccrypto "github.com/sage-x-project/nostrlocator/crypto"
	"github.com/sage-x-project/nostrlocator/identity"
	"github.com/sage-x-project/nostrlocator/locerr"
)

// DefaultIdentifier is the "d" tag value used when the caller doesn't
// specify one.
const DefaultIdentifier = "addr"

// channel is the shared Channel implementation every mode in this file
// uses for its authenticated encryption.
var channel = loccrypto.NewChannel()

// Options controls the optional tags and timestamp Build attaches.
type Options struct {
	// Identifier is the "d" tag value. Defaults to DefaultIdentifier.
	Identifier string
	// Private, when true, adds the ["private","true"] tag.
	Private bool
	// Expiration, if non-nil, adds an ["expiration", epoch] tag.
	Expiration *int64
}

func (o Options) identifier() string {
	if o.Identifier == "" {
		return DefaultIdentifier
	}
	return o.Identifier
}

func (o Options) tags() [][]string {
	tags := [][]string{{"d", o.identifier()}}
	if o.Private {
		tags = append(tags, []string{"private", "true"})
	}
	if o.Expiration != nil {
		tags = append(tags, []string{"expiration", strconv.FormatInt(*o.Expiration, 10)})
	}
	return tags
}

// BuildPublic builds an event whose content is the payload bytes verbatim.
func BuildPublic(ctx context.Context, signer identity.Signer, payloadBytes []byte, opts Options, now time.Time) (Event, error) {
	return finalize(ctx, signer, Kind, opts.tags(), string(payloadBytes), now)
}

// BuildSelf builds an event encrypted under the conversation key the
// signer shares with itself.
func BuildSelf(ctx context.Context, signer identity.Signer, payloadBytes []byte, opts Options, now time.Time) (Event, error) {
	key, err := signer.ConversationKey(ctx, signer.PublicKey())
	if err != nil {
		return Event{}, locerr.NewLibraryError("derive self conversation key", err)
	}
	content, err := channel.Encrypt(key, payloadBytes)
	if err != nil {
		return Event{}, locerr.NewLibraryError("encrypt self content", err)
	}
	return finalize(ctx, signer, Kind, opts.tags(), content, now)
}

// BuildTargeted builds an event encrypted under the conversation key shared
// with peerPub.
func BuildTargeted(ctx context.Context, signer identity.Signer, peerPub [32]byte, payloadBytes []byte, opts Options, now time.Time) (Event, error) {
	key, err := signer.ConversationKey(ctx, peerPub)
	if err != nil {
		return Event{}, locerr.NewArgumentError("derive targeted conversation key", err)
	}
	content, err := channel.Encrypt(key, payloadBytes)
	if err != nil {
		return Event{}, locerr.NewLibraryError("encrypt targeted content", err)
	}
	return finalize(ctx, signer, Kind, opts.tags(), content, now)
}

// BuildWrapped builds a multi-recipient event: a fresh
// random session key seals the payload once; each recipient's entry in
// "wraps" is that session key hex-encoded then encrypted under
// conv(publisher, recipient).
func BuildWrapped(ctx context.Context, signer identity.Signer, recipients [][32]byte, payloadBytes []byte, opts Options, now time.Time) (Event, error) {
	if len(recipients) == 0 {
		return Event{}, locerr.NewArgumentError("wrapped publish requires at least one recipient", nil)
	}

	sessionKey, err := identity.GenerateSessionKey()
	if err != nil {
		return Event{}, locerr.NewLibraryError("generate session key", err)
	}
	sessionConvKey, err := identity.SessionConversationKey(sessionKey)
	if err != nil {
		return Event{}, err
	}

	ciphertext, err := channel.Encrypt(sessionConvKey, payloadBytes)
	if err != nil {
		return Event{}, locerr.NewLibraryError("encrypt wrapped payload", err)
	}

	wraps := make(map[string]string, len(recipients))
	sessionKeyHex := hex.EncodeToString(sessionKey[:])
	for _, recipient := range recipients {
		convKey, err := signer.ConversationKey(ctx, recipient)
		if err != nil {
			return Event{}, locerr.NewArgumentError(fmt.Sprintf("derive conversation key for recipient %x", recipient), err)
		}
		wrapped, err := channel.Encrypt(convKey, []byte(sessionKeyHex))
		if err != nil {
			return Event{}, locerr.NewLibraryError("encrypt wrap entry", err)
		}
		wraps[identity.PublicKeyHex(recipient)] = wrapped
	}

	content, err := encodeWrappedContent(WrappedContent{Ciphertext: ciphertext, Wraps: wraps})
	if err != nil {
		return Event{}, err
	}

	return finalize(ctx, signer, Kind, opts.tags(), content, now)
}

// RelayListKind is the NIP-65-style relay-list event kind the resolver's
// gossip discovery step reads (spec §4.5 step 3, §8 scenario 5).
const RelayListKind = 10002

// BuildRelayList builds the signer's own kind-10002 relay-list event: one
// "r" tag per advertised relay, content empty. This is the publish-side
// counterpart to the resolver's gossip discovery read path; nothing in this
// library's core resolve/publish flow requires a caller to emit one, but a
// peer who wants to be gossip-discoverable needs some way to produce it.
func BuildRelayList(ctx context.Context, signer identity.Signer, relays []string, now time.Time) (Event, error) {
	tags := make([][]string, 0, len(relays))
	for _, r := range relays {
		tags = append(tags, []string{"r", r})
	}
	return finalize(ctx, signer, RelayListKind, tags, "", now)
}

// finalize attaches created_at/kind, computes id, signs it, and assembles
// the Event.
func finalize(ctx context.Context, signer identity.Signer, kind int, tags [][]string, content string, now time.Time) (Event, error) {
	pubkeyHex := identity.PublicKeyHex(signer.PublicKey())
	createdAt := now.Unix()

	id, err := computeID(pubkeyHex, createdAt, kind, tags, content)
	if err != nil {
		return Event{}, err
	}

	sig, err := signer.Sign(ctx, id)
	if err != nil {
		return Event{}, locerr.NewLibraryError("sign event", err)
	}

	return Event{
		ID:        hex.EncodeToString(id[:]),
		PubKey:    pubkeyHex,
		Kind:      kind,
		CreatedAt: createdAt,
		Tags:      tags,
		Content:   content,
		Sig:       hex.EncodeToString(sig[:]),
	}, nil
}
