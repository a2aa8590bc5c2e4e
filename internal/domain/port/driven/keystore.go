package driven

import "errors"

var (
	// ErrKeyNotFound is returned by KeyStore.LoadKey when no key exists under the alias.
	ErrKeyNotFound = errors.New("key not found in secure key store")

	// ErrKeyStoreUnavailable is returned when the platform secure key store cannot
	// be reached or holds unusable key material. There is no software fallback.
	ErrKeyStoreUnavailable = errors.New("secure key store unavailable")
)

// KeyStore defines the driven port for the platform secret store that holds the
// session encryption key.
type KeyStore interface {
	// LoadKey returns the raw key stored under alias.
	// Returns ErrKeyNotFound if no key exists, or an error wrapping
	// ErrKeyStoreUnavailable if the store cannot be queried.
	LoadKey(alias string) ([]byte, error)

	// StoreKey writes key under alias, replacing any existing entry.
	// Returns an error wrapping ErrKeyStoreUnavailable on failure.
	StoreKey(alias string, key []byte) error
}
