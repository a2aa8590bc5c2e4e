package application

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// Durable layout of the encrypted session record.
const (
	SessionNamespace = "settings"
	TokenField       = "jwt_token_encrypted"
	NonceField       = "jwt_token_iv"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore persists the single session token encrypted at rest and keeps
// a decrypted copy in memory for the request pipeline.
type SessionStore struct {
	prefs  driven.PreferenceStore
	cipher driven.Cipher
	logger *slog.Logger
	reads  *prometheus.CounterVec

	// writeMu orders durable reads and writes with cache updates so the
	// cached token always matches the last completed storage operation.
	writeMu sync.Mutex

	mu     sync.RWMutex
	token  string
	loaded bool
}

// NewSessionStore creates a SessionStore. reg may be nil, in which case the
// read counter is kept but not registered anywhere.
func NewSessionStore(prefs driven.PreferenceStore, cipher driven.Cipher, logger *slog.Logger, reg prometheus.Registerer) *SessionStore {
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vaultpay",
		Subsystem: "session",
		Name:      "reads_total",
		Help:      "Session reads from durable storage, by outcome.",
	}, []string{"outcome"})
	if reg != nil {
		reg.MustRegister(reads)
	}

	return &SessionStore{
		prefs:  prefs,
		cipher: cipher,
		logger: logger,
		reads:  reads,
	}
}

// Save encrypts token and writes ciphertext and nonce together. Blank tokens
// are rejected before anything is encrypted or written.
func (s *SessionStore) Save(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrBlankToken
	}

	ciphertext, nonce, err := s.cipher.Encrypt([]byte(token))
	if err != nil {
		return fmt.Errorf("encrypt session token: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = s.prefs.SetValues(ctx, SessionNamespace, map[string]string{
		TokenField: base64.StdEncoding.EncodeToString(ciphertext),
		NonceField: base64.StdEncoding.EncodeToString(nonce),
	})
	if err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}

	s.setCached(token)
	s.logger.Debug("session saved")
	return nil
}

// Get reads and decrypts the persisted token. Every failure is logged and
// reported as absent so a damaged session looks like a logged-out one.
func (s *SessionStore) Get(ctx context.Context) (string, bool) {
	token, state := s.Load(ctx)
	return token, state == model.SessionPresent
}

// Load reads and classifies the persisted record, counting the outcome and
// refreshing the cache. Storage and key store failures leave the cache
// unloaded so the next Current retries.
func (s *SessionStore) Load(ctx context.Context) (string, model.SessionState) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	token, state := s.read(ctx)
	s.reads.WithLabelValues(string(state)).Inc()

	switch state {
	case model.SessionPresent, model.SessionAbsent:
		s.setCached(token)
	case model.SessionStorageError, model.SessionKeyUnavailable:
		s.resetCache()
	default:
		s.setCached("")
	}

	if state != model.SessionPresent && state != model.SessionAbsent {
		s.logger.Warn("stored session unusable, treating as logged out", "state", state)
	}
	return token, state
}

// Inspect classifies the stored record without altering the cache.
func (s *SessionStore) Inspect(ctx context.Context) model.SessionState {
	_, state := s.read(ctx)
	return state
}

// Current returns the in-memory token. The first call on a store that was
// never restored, saved or cleared, or whose last load could not reach
// storage or the key store, loads it from durable storage.
func (s *SessionStore) Current() (string, bool) {
	s.mu.RLock()
	token, loaded := s.token, s.loaded
	s.mu.RUnlock()

	if !loaded {
		return s.Restore(context.Background())
	}
	return token, token != ""
}

// Restore reloads the in-memory token from durable storage. It is called once
// at startup so the request pipeline never waits on storage.
func (s *SessionStore) Restore(ctx context.Context) (string, bool) {
	return s.Get(ctx)
}

// Clear removes both record fields and forgets the cached token.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.prefs.DeleteValues(ctx, SessionNamespace, TokenField, NonceField); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.setCached("")
	s.logger.Debug("session cleared")
	return nil
}

func (s *SessionStore) setCached(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.loaded = true
}

func (s *SessionStore) resetCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.loaded = false
}

func (s *SessionStore) read(ctx context.Context) (string, model.SessionState) {
	values, err := s.prefs.GetValues(ctx, SessionNamespace, TokenField, NonceField)
	if err != nil {
		s.logger.Error("read session record", "error", err)
		return "", model.SessionStorageError
	}

	record := model.EncryptedRecord{Ciphertext: values[TokenField], Nonce: values[NonceField]}
	if record.Ciphertext == "" && record.Nonce == "" {
		return "", model.SessionAbsent
	}
	if !record.Complete() {
		return "", model.SessionPartial
	}

	ciphertext, err := base64.StdEncoding.DecodeString(record.Ciphertext)
	if err != nil {
		s.logger.Debug("decode session ciphertext", "error", err)
		return "", model.SessionMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(record.Nonce)
	if err != nil {
		s.logger.Debug("decode session nonce", "error", err)
		return "", model.SessionMalformed
	}

	plaintext, err := s.cipher.Decrypt(ciphertext, nonce)
	switch {
	case err == nil:
		return string(plaintext), model.SessionPresent
	case errors.Is(err, driven.ErrKeyStoreUnavailable):
		s.logger.Debug("decrypt session token", "error", err)
		return "", model.SessionKeyUnavailable
	case errors.Is(err, driven.ErrIntegrity):
		s.logger.Debug("decrypt session token", "error", err)
		return "", model.SessionTampered
	default:
		s.logger.Debug("decrypt session token", "error", err)
		return "", model.SessionMalformed
	}
}
