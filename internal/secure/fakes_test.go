package secure

import (
	"errors"
	"sync"

	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// memKeyStore is an in-memory driven.KeyStore that counts calls.
type memKeyStore struct {
	mu      sync.Mutex
	keys    map[string][]byte
	loads   int
	stores  int
	loadErr error
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{keys: make(map[string][]byte)}
}

func (s *memKeyStore) LoadKey(alias string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	key, ok := s.keys[alias]
	if !ok {
		return nil, driven.ErrKeyNotFound
	}
	return append([]byte(nil), key...), nil
}

func (s *memKeyStore) StoreKey(alias string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores++
	s.keys[alias] = append([]byte(nil), key...)
	return nil
}

var errBackendDown = errors.New("dbus: connection refused")
