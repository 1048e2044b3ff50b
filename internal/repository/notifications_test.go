package repository

import (
	"context"
	"testing"

	"github.com/emupost/backend/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationsRepo(store *fakeStore) *NotificationsRepository {
	nop := zerolog.Nop()
	return NewNotificationsRepository(store, &nop)
}

func TestNotificationCreate(t *testing.T) {
	store := &fakeStore{createResult: int64(3)}

	id, err := newNotificationsRepo(store).Create(context.Background(), 5, 42, "parcel_update", "your parcel moved")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	require.Len(t, store.creates, 1)
	assert.Equal(t, NotificationPending, store.creates[0]["status"])
	assert.Equal(t, int64(42), store.creates[0]["chat_id"])
	assert.Equal(t, "notifications", store.tables[0])
}

func TestNotificationCreateBatch(t *testing.T) {
	store := &fakeStore{bulkReturned: []any{int64(1), int64(2)}}

	ids, err := newNotificationsRepo(store).CreateBatch(context.Background(), []Notification{
		{UserID: 1, ChatID: 10, Kind: "broadcast", Message: "hi"},
		{UserID: 2, ChatID: 20, Kind: "broadcast", Message: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	require.Len(t, store.creates, 2)
	for _, row := range store.creates {
		assert.Equal(t, NotificationPending, row["status"])
	}
}

func TestNotificationCreateBatchEmpty(t *testing.T) {
	store := &fakeStore{}

	ids, err := newNotificationsRepo(store).CreateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
	assert.Empty(t, store.tables)
}

func TestNotificationMarkSent(t *testing.T) {
	store := &fakeStore{}
	repo := newNotificationsRepo(store)

	require.NoError(t, repo.MarkSent(context.Background(), 3))

	require.Len(t, store.updates, 1)
	assert.Equal(t, NotificationSent, store.updates[0]["status"])
	assert.Contains(t, store.updates[0], "sent_at")
	assert.Equal(t, database.Conditions{"id": int64(3)}, store.conds[0])
}

func TestNotificationListPending(t *testing.T) {
	store := &fakeStore{readResult: []map[string]any{
		{"id": int64(1), "chat_id": int64(10), "status": NotificationPending},
	}}

	pending, err := newNotificationsRepo(store).ListPending(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(10), pending[0].ChatID)

	assert.Equal(t, database.Conditions{"status": NotificationPending}, store.conds[0])
}

func TestNotificationCountPending(t *testing.T) {
	store := &fakeStore{count: 7}

	n, err := newNotificationsRepo(store).CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
