package driven

import "context"

// PreferenceStore defines the driven port for small durable key-value state
// grouped by namespace. Multi-key writes and deletes are atomic.
type PreferenceStore interface {
	// GetValues returns the values stored for the given keys in namespace.
	// Missing keys are absent from the returned map; that is not an error.
	GetValues(ctx context.Context, namespace string, keys ...string) (map[string]string, error)

	// SetValues upserts every entry of values in a single transaction.
	SetValues(ctx context.Context, namespace string, values map[string]string) error

	// DeleteValues removes the given keys in a single transaction. Deleting
	// keys that do not exist succeeds.
	DeleteValues(ctx context.Context, namespace string, keys ...string) error
}
