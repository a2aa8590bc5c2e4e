package sqlite

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PreferenceStore = (*PreferenceRepo)(nil)

// PreferenceRepo is the SQLite implementation of the PreferenceStore port.
type PreferenceRepo struct {
	db *DB
}

// NewPreferenceRepo creates a new PreferenceRepo.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// GetValues reads the requested keys with a single query so the result is one
// consistent snapshot.
func (r *PreferenceRepo) GetValues(ctx context.Context, namespace string, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	query := `SELECT key, value FROM preferences WHERE namespace = ? AND key IN (` + placeholders(len(keys)) + `)`
	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get preferences %q: %w", namespace, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}

	return values, nil
}

// SetValues upserts all values in one transaction.
func (r *PreferenceRepo) SetValues(ctx context.Context, namespace string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set preferences: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO preferences (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	for _, key := range slices.Sorted(maps.Keys(values)) {
		if _, err := tx.ExecContext(ctx, query, namespace, key, values[key]); err != nil {
			return fmt.Errorf("set preference %s/%s: %w", namespace, key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set preferences: %w", err)
	}
	return nil
}

// DeleteValues removes the keys in one statement. Missing keys are ignored.
func (r *PreferenceRepo) DeleteValues(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM preferences WHERE namespace = ? AND key IN (` + placeholders(len(keys)) + `)`
	args := make([]any, 0, len(keys)+1)
	args = append(args, namespace)
	for _, k := range keys {
		args = append(args, k)
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete preferences %q: %w", namespace, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
