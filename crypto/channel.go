package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Channel is the NIP-44-style authenticated symmetric channel this library uses
// out as an out-of-scope cryptographic collaborator, given a concrete
// implementation here. The wire encoding is deliberately opaque to callers:
// event content carries only the string Encrypt returns.
type Channel interface {
	Encrypt(key [32]byte, plaintext []byte) (string, error)
	Decrypt(key [32]byte, ciphertext string) ([]byte, error)
}

// aeadChannel implements Channel with an HKDF-derived message key (one per
// conversation key) over ChaCha20-Poly1305 and a random nonce per message, adapted from the conversation-keyed AEAD session
// pattern: nonce-prefixed ciphertext, base64-encoded for use inside a JSON
// string field. Output never begins with '{', so it can never be confused
// with wrapped content.
type aeadChannel struct{}

// NewChannel returns the default Channel implementation.
func NewChannel() Channel { return aeadChannel{} }

func (aeadChannel) Encrypt(key [32]byte, plaintext []byte) (string, error) {
	encKey, err := deriveMessageKey(key)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.New(encKey[:])
	if err != nil {
		return "", fmt.Errorf("crypto: build aead: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (aeadChannel) Decrypt(key [32]byte, ciphertext string) ([]byte, error) {
	encKey, err := deriveMessageKey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(encKey[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: build aead: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode ciphertext: %w", err)
	}
	if len(raw) < chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("crypto: ciphertext too short")
	}

	nonce, sealed := raw[:chacha20poly1305.NonceSize], raw[chacha20poly1305.NonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: decryption failed: %w", err)
	}
	return plaintext, nil
}

// deriveMessageKey expands a conversation key into the AEAD key actually
// used to seal messages, mirroring session.deriveKeys' use of HKDF-Expand
// over a fixed info label rather than using the conversation key directly.
func deriveMessageKey(conversationKey [32]byte) ([32]byte, error) {
	var out [32]byte
	r := hkdf.New(sha256.New, conversationKey[:], nil, []byte("nostrlocator-message-key"))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, fmt.Errorf("crypto: derive message key: %w", err)
	}
	return out, nil
}
