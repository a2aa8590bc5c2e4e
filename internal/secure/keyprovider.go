// Package secure holds the device key and the authenticated cipher used to
// protect the session token at rest.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

const (
	// DefaultKeyAlias names the session key in the platform key store.
	DefaultKeyAlias = "vaultpay_key_alias"

	keySize = 32 // AES-256
	tagSize = 16 // 128-bit GCM tag on both seal and open.
)

// KeyHandle wraps the device key as a ready AEAD. The raw key bytes are not
// retained and cannot be read back through the handle.
type KeyHandle struct {
	alias string
	aead  cipher.AEAD
}

// Alias returns the key store alias the handle was loaded from.
func (h *KeyHandle) Alias() string {
	return h.alias
}

// KeyProvider returns the single session key, generating it on first use.
type KeyProvider struct {
	store driven.KeyStore
	alias string
	rand  io.Reader

	mu     sync.Mutex
	handle *KeyHandle
}

// NewKeyProvider creates a provider for the key stored under alias.
// An empty alias falls back to DefaultKeyAlias.
func NewKeyProvider(store driven.KeyStore, alias string) *KeyProvider {
	if alias == "" {
		alias = DefaultKeyAlias
	}
	return &KeyProvider{store: store, alias: alias, rand: rand.Reader}
}

// GetOrCreateKey returns the cached handle, loading the key from the store or
// generating and storing a new one on a true miss. Callers are serialised so a
// process never generates two competing keys.
func (p *KeyProvider) GetOrCreateKey() (*KeyHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil {
		return p.handle, nil
	}

	key, err := p.store.LoadKey(p.alias)
	if errors.Is(err, driven.ErrKeyNotFound) {
		key, err = p.generate()
	}
	if err != nil {
		if errors.Is(err, driven.ErrKeyStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load key %q: %w", driven.ErrKeyStoreUnavailable, p.alias, err)
	}

	handle, err := newKeyHandle(p.alias, key)
	if err != nil {
		return nil, err
	}
	p.handle = handle
	return handle, nil
}

func (p *KeyProvider) generate() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(p.rand, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := p.store.StoreKey(p.alias, key); err != nil {
		return nil, fmt.Errorf("store key %q: %w", p.alias, err)
	}
	return key, nil
}

func newKeyHandle(alias string, key []byte) (*KeyHandle, error) {
	defer clear(key)

	if len(key) != keySize {
		return nil, fmt.Errorf("%w: key %q has %d bytes, want %d", driven.ErrKeyStoreUnavailable, alias, len(key), keySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCMWithTagSize: %w", err)
	}

	return &KeyHandle{alias: alias, aead: aead}, nil
}
