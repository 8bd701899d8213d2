// Package event implements building kind-30058 parameterized
// replaceable events, verifying their signatures, and dispatching to the
// right decryption mode.
package event

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/sage-x-project/nostrlocator/locerr"
)

// Kind is the parameterized replaceable event kind this library reads and
// writes.
const Kind = 30058

// Event is the signed wire record: { id, pubkey, kind,
// created_at, tags, content, sig }.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	Kind      int        `json:"kind"`
	CreatedAt int64      `json:"created_at"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Identifier returns the value of the event's "d" tag, or "" if absent.
func (e Event) Identifier() string {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == "d" {
			return tag[1]
		}
	}
	return ""
}

// ExpirationUnix returns the event's "expiration" tag as a Unix second
// count, and whether the tag was present and well-formed.
func (e Event) ExpirationUnix() (int64, bool) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == "expiration" {
			var v int64
			if err := json.Unmarshal([]byte(tag[1]), &v); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// canonicalSerialization produces the byte sequence id is hashed from,
// mirroring the underlying protocol's canonical event array:
// [0, pubkey, created_at, kind, tags, content].
func canonicalSerialization(pubkeyHex string, createdAt int64, kind int, tags [][]string, content string) ([]byte, error) {
	if tags == nil {
		tags = [][]string{}
	}
	arr := []interface{}{0, pubkeyHex, createdAt, kind, tags, content}
	data, err := json.Marshal(arr)
	if err != nil {
		return nil, locerr.NewLibraryError("serialize canonical event", err)
	}
	return data, nil
}

// computeID hashes the canonical serialization with SHA-256.
func computeID(pubkeyHex string, createdAt int64, kind int, tags [][]string, content string) ([32]byte, error) {
	data, err := canonicalSerialization(pubkeyHex, createdAt, kind, tags, content)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
