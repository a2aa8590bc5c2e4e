package driven

import (
	"context"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
)

// SessionStore defines the port for the single current session token.
type SessionStore interface {
	// Save encrypts and persists token, replacing any previous session.
	Save(ctx context.Context, token string) error

	// Get returns the persisted token. Any failure reads as absent (false).
	Get(ctx context.Context) (string, bool)

	// Load reads the persisted record once and returns the token together
	// with its classification. The token is empty unless the state is
	// model.SessionPresent.
	Load(ctx context.Context) (string, model.SessionState)

	// Current returns the cached token without touching durable storage
	// after the first load. Safe to call from an http.RoundTripper.
	Current() (string, bool)

	// Clear removes the persisted session. Clearing an empty store succeeds.
	Clear(ctx context.Context) error

	// Inspect classifies what durable storage holds without changing it.
	Inspect(ctx context.Context) model.SessionState
}
