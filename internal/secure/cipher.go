package secure

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Cipher = (*Cipher)(nil)

// Cipher encrypts and decrypts small payloads with AES-256-GCM under the key
// supplied by a KeyProvider. The nonce travels separately from the ciphertext.
type Cipher struct {
	keys *KeyProvider
	rand io.Reader
}

// NewCipher creates a Cipher that resolves its key through keys on every call.
func NewCipher(keys *KeyProvider) *Cipher {
	return &Cipher{keys: keys, rand: rand.Reader}
}

// Encrypt seals plaintext with a fresh random nonce and returns the
// ciphertext (with tag appended) and the nonce.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, []byte, error) {
	if strings.TrimSpace(string(plaintext)) == "" {
		return nil, nil, driven.ErrEmptyPlaintext
	}

	key, err := c.keys.GetOrCreateKey()
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, key.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, nil, fmt.Errorf("rand nonce: %w", err)
	}

	return key.aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext with nonce. Any verification failure, including a
// nonce of the wrong length, is reported as driven.ErrIntegrity.
func (c *Cipher) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, driven.ErrEmptyCiphertext
	}
	if len(nonce) == 0 {
		return nil, driven.ErrEmptyNonce
	}

	key, err := c.keys.GetOrCreateKey()
	if err != nil {
		return nil, err
	}

	// GCM panics on a nonce of the wrong size.
	if len(nonce) != key.aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce has %d bytes, want %d", driven.ErrIntegrity, len(nonce), key.aead.NonceSize())
	}

	plaintext, err := key.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrIntegrity, err)
	}
	return plaintext, nil
}
