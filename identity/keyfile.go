package identity

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"crypto/sha256"

	"github.com/sage-x-project/nostrlocator/locerr"
)

// keyFile is the on-disk shape written by SaveEncryptedKeyFile, adapted from
// the sibling retrieval-pack example's local-key persistence pattern
// (XChaCha20-Poly1305-sealed secret, salt + nonce stored alongside). This is
// operator convenience for the local signer's own secret, not the record
// persistence this library otherwise leaves to the caller.
type keyFile struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

const keyFileSaltSize = 16

// SaveEncryptedKeyFile seals priv's secret bytes under a key derived from
// passphrase via HKDF and writes the result to path as JSON.
func SaveEncryptedKeyFile(path string, priv []byte, passphrase string) error {
	salt := make([]byte, keyFileSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return locerr.NewLibraryError("generate key-file salt", err)
	}

	key, err := deriveKeyFileKey(passphrase, salt)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return locerr.NewLibraryError("build key-file aead", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return locerr.NewLibraryError("generate key-file nonce", err)
	}

	sealed := aead.Seal(nil, nonce, priv, nil)

	data, err := json.Marshal(keyFile{
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(sealed),
	})
	if err != nil {
		return locerr.NewLibraryError("encode key file", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return locerr.NewLibraryError("write key file", err)
	}
	return nil
}

// LoadEncryptedKeyFile reverses SaveEncryptedKeyFile, returning the raw
// 32-byte secret scalar.
func LoadEncryptedKeyFile(path string, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, locerr.NewLibraryError("read key file", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, locerr.NewLibraryError("decode key file", err)
	}

	salt, err := hex.DecodeString(kf.Salt)
	if err != nil {
		return nil, locerr.NewLibraryError("decode key-file salt", err)
	}
	nonce, err := hex.DecodeString(kf.Nonce)
	if err != nil {
		return nil, locerr.NewLibraryError("decode key-file nonce", err)
	}
	sealed, err := hex.DecodeString(kf.Ciphertext)
	if err != nil {
		return nil, locerr.NewLibraryError("decode key-file ciphertext", err)
	}

	key, err := deriveKeyFileKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, locerr.NewLibraryError("build key-file aead", err)
	}

	priv, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, locerr.NewDecryptionError("wrong passphrase or corrupted key file", err)
	}
	return priv, nil
}

func deriveKeyFileKey(passphrase string, salt []byte) ([32]byte, error) {
	var out [32]byte
	r := hkdf.New(sha256.New, []byte(passphrase), salt, []byte("nostrlocator-keyfile"))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, fmt.Errorf("identity: derive key-file key: %w", err)
	}
	return out, nil
}
