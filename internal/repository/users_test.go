package repository

import (
	"context"
	"testing"
	"time"

	"github.com/emupost/backend/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records façade calls and plays back canned results.
type fakeStore struct {
	readResult   any
	createResult any
	bulkReturned []any

	creates []map[string]any
	updates []map[string]any
	conds   []database.Conditions
	tables  []string
	count   int64
}

func (f *fakeStore) Create(_ context.Context, table string, data map[string]any, _ string) (any, error) {
	f.tables = append(f.tables, table)
	f.creates = append(f.creates, data)
	return f.createResult, nil
}

func (f *fakeStore) Read(_ context.Context, table string, conds database.Conditions, _ database.ReadOptions) (any, error) {
	f.tables = append(f.tables, table)
	f.conds = append(f.conds, conds)
	return f.readResult, nil
}

func (f *fakeStore) Update(_ context.Context, table string, data map[string]any, conds database.Conditions, _ string) (any, error) {
	f.tables = append(f.tables, table)
	f.updates = append(f.updates, data)
	f.conds = append(f.conds, conds)
	return nil, nil
}

func (f *fakeStore) Delete(_ context.Context, table string, conds database.Conditions, _ string) (any, error) {
	f.tables = append(f.tables, table)
	f.conds = append(f.conds, conds)
	return nil, nil
}

func (f *fakeStore) Count(_ context.Context, table string, conds database.Conditions) (int64, error) {
	f.tables = append(f.tables, table)
	f.conds = append(f.conds, conds)
	return f.count, nil
}

func (f *fakeStore) BulkCreate(_ context.Context, table string, rows []map[string]any, _ int, _ string) (int, []any, error) {
	f.tables = append(f.tables, table)
	f.creates = append(f.creates, rows...)
	return len(rows), f.bulkReturned, nil
}

func newUsersRepo(store *fakeStore) *UsersRepository {
	nop := zerolog.Nop()
	return NewUsersRepository(store, &nop)
}

func TestFindByTelegramID(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{readResult: map[string]any{
		"id":                    int64(5),
		"telegram_id":           int64(42),
		"username":              "ali",
		"first_name":            "Ali",
		"lang":                  "ru",
		"notifications_enabled": true,
		"last_activity":         created,
		"created_at":            created,
	}}

	user, err := newUsersRepo(store).FindByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, int64(42), user.TelegramID)
	assert.Equal(t, "ru", user.Lang)
	assert.True(t, user.Notifications)
	assert.Equal(t, created, user.CreatedAt)

	require.Len(t, store.conds, 1)
	assert.Equal(t, database.Conditions{"telegram_id": int64(42)}, store.conds[0])
}

func TestFindByTelegramIDNoMatch(t *testing.T) {
	store := &fakeStore{readResult: nil}

	user, err := newUsersRepo(store).FindByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpsertFromTelegramCreates(t *testing.T) {
	store := &fakeStore{readResult: nil, createResult: int64(9)}

	id, err := newUsersRepo(store).UpsertFromTelegram(context.Background(), 42, "ali", "Ali")
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	require.Len(t, store.creates, 1)
	created := store.creates[0]
	assert.Equal(t, int64(42), created["telegram_id"])
	assert.Equal(t, "en", created["lang"])
	assert.Equal(t, true, created["notifications_enabled"])
	assert.Empty(t, store.updates)
}

func TestUpsertFromTelegramRefreshes(t *testing.T) {
	store := &fakeStore{readResult: map[string]any{
		"id":          int64(5),
		"telegram_id": int64(42),
	}}

	id, err := newUsersRepo(store).UpsertFromTelegram(context.Background(), 42, "newname", "Ali")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	assert.Empty(t, store.creates)
	require.Len(t, store.updates, 1)
	assert.Equal(t, "newname", store.updates[0]["username"])
	assert.Contains(t, store.updates[0], "last_activity")
}

func TestSetLangAndNotifications(t *testing.T) {
	store := &fakeStore{}
	repo := newUsersRepo(store)
	ctx := context.Background()

	require.NoError(t, repo.SetLang(ctx, 42, "ru"))
	require.NoError(t, repo.SetNotifications(ctx, 42, false))

	require.Len(t, store.updates, 2)
	assert.Equal(t, map[string]any{"lang": "ru"}, store.updates[0])
	assert.Equal(t, map[string]any{"notifications_enabled": false}, store.updates[1])
}

func TestListRecipients(t *testing.T) {
	store := &fakeStore{readResult: []map[string]any{
		{"id": int64(1), "telegram_id": int64(10), "notifications_enabled": true},
		{"id": int64(2), "telegram_id": int64(20), "notifications_enabled": true},
	}}

	users, err := newUsersRepo(store).ListRecipients(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(10), users[0].TelegramID)
	assert.Equal(t, int64(20), users[1].TelegramID)
}
