package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUninitializedDB() *Database {
	nop := zerolog.Nop()
	return New(nil, &nop)
}

func TestOperationsBeforeCreatePool(t *testing.T) {
	d := newUninitializedDB()
	ctx := context.Background()

	assert.Equal(t, "uninitialized", d.State())
	assert.Nil(t, d.Stat())

	_, err := d.Create(ctx, "users", map[string]any{"name": "x"}, "")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = d.Read(ctx, "users", nil, ReadOptions{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = d.Update(ctx, "users", map[string]any{"lang": "ru"}, Conditions{"id": 1}, "")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = d.Delete(ctx, "users", Conditions{"id": 1}, "")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = d.Count(ctx, "users", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, _, err = d.BulkCreate(ctx, "users", []map[string]any{{"name": "x"}}, 0, "")
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, d.Ping(ctx), ErrNotInitialized)
	assert.ErrorIs(t, d.WithConn(ctx, func(*pgxpool.Conn) error { return nil }), ErrNotInitialized)
	assert.ErrorIs(t, d.WithTransaction(ctx, func(pgx.Tx) error { return nil }), ErrNotInitialized)
}

func TestCloseIsIdempotent(t *testing.T) {
	d := newUninitializedDB()

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, "closed", d.State())
}

func TestOperationsAfterClose(t *testing.T) {
	d := newUninitializedDB()
	require.NoError(t, d.Close())
	ctx := context.Background()

	// The pool cannot be revived after shutdown.
	assert.ErrorIs(t, d.CreatePool(ctx), ErrClosed)

	_, err := d.Read(ctx, "users", nil, ReadOptions{})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = d.Create(ctx, "users", map[string]any{"name": "x"}, "")
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, d.Ping(ctx), ErrClosed)
}

// Lifecycle errors must surface as themselves, never wrapped into the
// transient classification.
func TestLifecycleErrorsNotWrapped(t *testing.T) {
	d := newUninitializedDB()

	_, err := d.Create(context.Background(), "users", map[string]any{"name": "x"}, "")
	require.ErrorIs(t, err, ErrNotInitialized)

	var transient *TransientError
	assert.False(t, errors.As(err, &transient))
}
