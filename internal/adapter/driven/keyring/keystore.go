// Package keyring implements the KeyStore port on top of the operating system
// secret store (macOS Keychain, Secret Service, Windows Credential Manager).
package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// DefaultService is the keyring service name every VaultPay entry is filed under.
const DefaultService = "vaultpay"

// Compile-time interface satisfaction check.
var _ driven.KeyStore = (*KeyStore)(nil)

// KeyStore keeps keys as base64 secrets in the OS keyring, one entry per alias.
type KeyStore struct {
	service string
}

// NewKeyStore creates a KeyStore filing entries under service.
// An empty service falls back to DefaultService.
func NewKeyStore(service string) *KeyStore {
	if service == "" {
		service = DefaultService
	}
	return &KeyStore{service: service}
}

// LoadKey reads and decodes the key stored under alias.
func (s *KeyStore) LoadKey(alias string) ([]byte, error) {
	encoded, err := gokeyring.Get(s.service, alias)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil, driven.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: keyring get %s/%s: %w", driven.ErrKeyStoreUnavailable, s.service, alias, err)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode key %s/%s: %w", driven.ErrKeyStoreUnavailable, s.service, alias, err)
	}
	return key, nil
}

// StoreKey writes key under alias, replacing any previous entry.
func (s *KeyStore) StoreKey(alias string, key []byte) error {
	if err := gokeyring.Set(s.service, alias, base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("%w: keyring set %s/%s: %w", driven.ErrKeyStoreUnavailable, s.service, alias, err)
	}
	return nil
}
