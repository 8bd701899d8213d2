package identity

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/cloudflare/circl/hpke"
	"github.com/cloudflare/circl/kem"

	loccrypto "github.com/sage-x-project/nostrlocator/crypto"
	"github.com/sage-x-project/nostrlocator/locerr"
)

// bunkerSuite fixes the HPKE ciphersuite used to wrap every request/response
// frame exchanged with a remote signer: X25519 KEM, HKDF-SHA256, AES-128-GCM.
var bunkerSuite = hpke.NewSuite(hpke.KEM_X25519_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_AES128GCM)

// RemoteTransport delivers one HPKE-sealed request frame to an out-of-process
// signer and returns its sealed response frame. The relay transport proper is
// out of scope here; this is the analogous "signer" collaborator: how
// bytes actually reach the remote process is the caller's concern.
type RemoteTransport func(ctx context.Context, sealedRequest []byte) (sealedResponse []byte, err error)

// bunkerRequest/bunkerResponse are the plaintext frames sealed under HPKE
// before crossing RemoteTransport.
type bunkerRequest struct {
	Op   string `json:"op"`
	Hash []byte `json:"hash,omitempty"`
	Peer []byte `json:"peer,omitempty"`
}

type bunkerResponse struct {
	Signature []byte `json:"signature,omitempty"`
	SharedKey []byte `json:"shared_key,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BunkerSigner implements Signer by delegating signing and conversation-key
// derivation to a remote process holding the actual secret, implementing
// an async remote/bunker signer. Every frame is
// HPKE-sealed to the remote signer's public key so RemoteTransport (and
// anything relaying it) never observes plaintext hashes or derived keys.
type BunkerSigner struct {
	pub       [32]byte
	remotePub kem.PublicKey
	transport RemoteTransport
	info      []byte
}

var _ Signer = (*BunkerSigner)(nil)

// NewBunkerSigner builds a signer that talks to a remote signer holding the
// secret for pub. remotePubKeyBytes is the remote signer's HPKE public key
// (distinct from the Nostr identity key pub); info binds the HPKE context to
// this particular bunker session.
func NewBunkerSigner(pub [32]byte, remotePubKeyBytes []byte, info []byte, transport RemoteTransport) (*BunkerSigner, error) {
	kem := bunkerSuite.KEM
	remotePub, err := kem.Scheme().UnmarshalBinaryPublicKey(remotePubKeyBytes)
	if err != nil {
		return nil, locerr.NewArgumentError("invalid remote signer public key", err)
	}
	return &BunkerSigner{pub: pub, remotePub: remotePub, transport: transport, info: info}, nil
}

func (b *BunkerSigner) PublicKey() [32]byte { return b.pub }

func (b *BunkerSigner) Sign(ctx context.Context, hash [32]byte) ([64]byte, error) {
	var out [64]byte
	resp, err := b.roundTrip(ctx, bunkerRequest{Op: "sign", Hash: hash[:]})
	if err != nil {
		return out, err
	}
	if len(resp.Signature) != len(out) {
		return out, locerr.NewLibraryError("remote signer returned malformed signature", nil)
	}
	copy(out[:], resp.Signature)
	return out, nil
}

func (b *BunkerSigner) ConversationKey(ctx context.Context, peerPub [32]byte) ([32]byte, error) {
	var out [32]byte
	resp, err := b.roundTrip(ctx, bunkerRequest{Op: "conversation_key", Peer: peerPub[:]})
	if err != nil {
		return out, err
	}
	if len(resp.SharedKey) != len(out) {
		return out, locerr.NewLibraryError("remote signer returned malformed shared key", nil)
	}
	copy(out[:], resp.SharedKey)
	return out, nil
}

func (b *BunkerSigner) roundTrip(ctx context.Context, req bunkerRequest) (*bunkerResponse, error) {
	plaintext, err := json.Marshal(req)
	if err != nil {
		return nil, locerr.NewLibraryError("encode bunker request", err)
	}

	sender, err := bunkerSuite.NewSender(b.remotePub, b.info)
	if err != nil {
		return nil, locerr.NewLibraryError("build hpke sender", err)
	}
	enc, sealer, err := sender.Setup(rand.Reader)
	if err != nil {
		return nil, locerr.NewLibraryError("setup hpke sender", err)
	}
	sealed := sealer.Seal(plaintext, nil)

	// The exported secret keys the response direction: HPKE's base mode only
	// seals sender-to-receiver, so the reply travels back under a channel
	// key both sides can derive without a second key exchange.
	var responseKey [32]byte
	copy(responseKey[:], sealer.Export(b.info, 32))

	frame := append(append([]byte{}, lengthPrefix(len(enc))...), append(enc, sealed...)...)

	sealedResponse, err := b.transport(ctx, frame)
	if err != nil {
		return nil, locerr.NewLibraryError("remote signer round trip", err)
	}

	responsePlaintext, err := loccrypto.NewChannel().Decrypt(responseKey, string(sealedResponse))
	if err != nil {
		return nil, locerr.NewLibraryError("decrypt bunker response", err)
	}

	var resp bunkerResponse
	if err := json.Unmarshal(responsePlaintext, &resp); err != nil {
		return nil, locerr.NewLibraryError("decode bunker response", err)
	}
	if resp.Error != "" {
		return nil, locerr.NewLibraryError(fmt.Sprintf("remote signer error: %s", resp.Error), nil)
	}
	return &resp, nil
}

// lengthPrefix encodes n as a 4-byte big-endian prefix so the receiver can
// split the HPKE encapsulated key from the sealed payload that follows it.
func lengthPrefix(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}
