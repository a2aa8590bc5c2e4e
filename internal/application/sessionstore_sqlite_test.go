package application_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteadapter "github.com/ericfisherdev/vaultpay/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/vaultpay/internal/application"
	"github.com/ericfisherdev/vaultpay/internal/domain/model"
	"github.com/ericfisherdev/vaultpay/internal/secure"
)

// newSQLiteSessionStore wires a SessionStore over a migrated file database.
func newSQLiteSessionStore(t *testing.T) (*application.SessionStore, *sqliteadapter.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := sqliteadapter.NewDB(ctx, filepath.Join(t.TempDir(), "vaultpay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqliteadapter.RunMigrations(db.Writer))

	cipher := secure.NewCipher(secure.NewKeyProvider(newMemKeyStore(), "test-alias"))
	store := application.NewSessionStore(sqliteadapter.NewPreferenceRepo(db), cipher, discardLogger(), nil)
	return store, db
}

func TestSessionStoreSQLite_SaveClearAreAllOrNothing(t *testing.T) {
	store, _ := newSQLiteSessionStore(t)
	ctx := context.Background()

	const cycles = 300
	var (
		done    atomic.Bool
		partial atomic.Int32
		other   atomic.Int32
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for !done.Load() {
			switch store.Inspect(ctx) {
			case model.SessionAbsent, model.SessionPresent:
			case model.SessionPartial:
				partial.Add(1)
			default:
				other.Add(1)
			}
		}
	}()

	for i := range cycles {
		require.NoError(t, store.Save(ctx, "tok-"+string(rune('a'+i%26))))
		require.NoError(t, store.Clear(ctx))
	}
	done.Store(true)
	wg.Wait()

	assert.Zero(t, partial.Load(), "a reader must never see one field without the other")
	assert.Zero(t, other.Load())
	assert.Equal(t, model.SessionAbsent, store.Inspect(ctx))
}

func TestSessionStoreSQLite_PersistsUnwrappedNonce(t *testing.T) {
	store, db := newSQLiteSessionStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "tok-abc123"))

	var value string
	require.NoError(t, db.Reader.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE namespace = ? AND key = ?",
		application.SessionNamespace, application.NonceField,
	).Scan(&value))
	assert.Len(t, value, 16, "12-byte nonce encodes to 16 base64 characters")

	got, ok := store.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "tok-abc123", got)
}

func TestSessionStoreSQLite_TamperedRowReadsAsAbsent(t *testing.T) {
	store, db := newSQLiteSessionStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "tok-abc123"))

	var ciphertext string
	require.NoError(t, db.Reader.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE namespace = ? AND key = ?",
		application.SessionNamespace, application.TokenField,
	).Scan(&ciphertext))

	_, err := db.Writer.ExecContext(ctx,
		"UPDATE preferences SET value = ? WHERE namespace = ? AND key = ?",
		flipFirstChar(ciphertext), application.SessionNamespace, application.TokenField,
	)
	require.NoError(t, err)

	assert.Equal(t, model.SessionTampered, store.Inspect(ctx))
	_, ok := store.Get(ctx)
	assert.False(t, ok)
}
