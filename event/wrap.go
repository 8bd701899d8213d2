package event

import (
	"encoding/json"
	"strings"

	"github.com/sage-x-project/nostrlocator/locerr"
)

// WrappedContent is the multi-recipient content shape: one
// payload ciphertext plus per-recipient session-key envelopes keyed by
// recipient public key hex.
type WrappedContent struct {
	Ciphertext string            `json:"ciphertext"`
	Wraps      map[string]string `json:"wraps"`
}

func encodeWrappedContent(w WrappedContent) (string, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return "", locerr.NewLibraryError("encode wrapped content", err)
	}
	return string(data), nil
}

// looksWrapped is a substring discriminator: a JSON object (leading
// '{') whose raw text contains both "wraps" and "ciphertext". This is
// fragile but wire-compatible; callers producing new content should prefer
// the exact-shape check
// decodeWrappedContent performs once this test passes.
func looksWrapped(content string) bool {
	return strings.HasPrefix(content, "{") &&
		strings.Contains(content, "wraps") &&
		strings.Contains(content, "ciphertext")
}

func decodeWrappedContent(content string) (WrappedContent, error) {
	var w WrappedContent
	if err := json.Unmarshal([]byte(content), &w); err != nil {
		return w, locerr.NewDecryptionError("malformed wrapped content", err)
	}
	if w.Ciphertext == "" || w.Wraps == nil {
		return w, locerr.NewDecryptionError("wrapped content missing ciphertext or wraps", nil)
	}
	return w, nil
}
