package service

import (
	"context"
	"testing"

	"github.com/emupost/backend/internal/database"
	"github.com/emupost/backend/internal/errs"
	"github.com/emupost/backend/internal/lib/job"
	"github.com/emupost/backend/internal/repository"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore plays back per-table read results and records writes.
type fakeStore struct {
	reads    map[string]any
	createID any
	bulkIDs  []any

	created []map[string]any
	tables  []string
}

func (f *fakeStore) Create(_ context.Context, table string, data map[string]any, _ string) (any, error) {
	f.tables = append(f.tables, table)
	f.created = append(f.created, data)
	return f.createID, nil
}

func (f *fakeStore) Read(_ context.Context, table string, _ database.Conditions, _ database.ReadOptions) (any, error) {
	f.tables = append(f.tables, table)
	return f.reads[table], nil
}

func (f *fakeStore) Update(_ context.Context, table string, _ map[string]any, _ database.Conditions, _ string) (any, error) {
	f.tables = append(f.tables, table)
	return nil, nil
}

func (f *fakeStore) Delete(_ context.Context, table string, _ database.Conditions, _ string) (any, error) {
	f.tables = append(f.tables, table)
	return nil, nil
}

func (f *fakeStore) Count(_ context.Context, table string, _ database.Conditions) (int64, error) {
	f.tables = append(f.tables, table)
	return 0, nil
}

func (f *fakeStore) BulkCreate(_ context.Context, table string, rows []map[string]any, _ int, _ string) (int, []any, error) {
	f.tables = append(f.tables, table)
	f.created = append(f.created, rows...)
	return len(rows), f.bulkIDs, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newNotificationService(store *fakeStore, queue *fakeEnqueuer) *NotificationService {
	nop := zerolog.Nop()
	repos := &repository.Repositories{
		Users:         repository.NewUsersRepository(store, &nop),
		Notifications: repository.NewNotificationsRepository(store, &nop),
	}
	return NewNotificationService(store, repos, queue, &nop)
}

func TestHandleParcelEvent(t *testing.T) {
	store := &fakeStore{
		reads: map[string]any{
			"orders": map[string]any{"id": int64(1), "user_id": int64(5), "order_no": "EP-100"},
			"users": map[string]any{
				"id":                    int64(5),
				"telegram_id":           int64(42),
				"notifications_enabled": true,
			},
		},
		createID: int64(9),
	}
	queue := &fakeEnqueuer{}

	id, err := newNotificationService(store, queue).HandleParcelEvent(context.Background(), ParcelEvent{
		OrderNo:  "EP-100",
		ParcelID: "P-7",
		Status:   "arrived at sorting center",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	// One pending row persisted, one delivery task enqueued.
	require.Len(t, store.created, 1)
	assert.Equal(t, int64(42), store.created[0]["chat_id"])
	assert.Equal(t, repository.NotificationPending, store.created[0]["status"])

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, job.TaskNotificationDeliver, queue.tasks[0].Type())
}

func TestHandleParcelEventUnknownOrder(t *testing.T) {
	store := &fakeStore{reads: map[string]any{}}
	queue := &fakeEnqueuer{}

	_, err := newNotificationService(store, queue).HandleParcelEvent(context.Background(), ParcelEvent{
		OrderNo: "EP-404",
	})
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.Status)
	assert.Empty(t, queue.tasks)
}

func TestHandleParcelEventOptedOut(t *testing.T) {
	store := &fakeStore{
		reads: map[string]any{
			"orders": map[string]any{"id": int64(1), "user_id": int64(5)},
			"users": map[string]any{
				"id":                    int64(5),
				"telegram_id":           int64(42),
				"notifications_enabled": false,
			},
		},
	}
	queue := &fakeEnqueuer{}

	id, err := newNotificationService(store, queue).HandleParcelEvent(context.Background(), ParcelEvent{
		OrderNo: "EP-100",
	})
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Empty(t, store.created)
	assert.Empty(t, queue.tasks)
}

func TestBroadcast(t *testing.T) {
	store := &fakeStore{
		reads: map[string]any{
			"users": []map[string]any{
				{"id": int64(1), "telegram_id": int64(10), "notifications_enabled": true},
				{"id": int64(2), "telegram_id": int64(20), "notifications_enabled": true},
			},
		},
		bulkIDs: []any{int64(100), int64(101)},
	}
	queue := &fakeEnqueuer{}

	count, err := newNotificationService(store, queue).Broadcast(context.Background(), "maintenance tonight")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, queue.tasks, 2)
}

func TestBroadcastNoRecipients(t *testing.T) {
	store := &fakeStore{reads: map[string]any{"users": []map[string]any{}}}
	queue := &fakeEnqueuer{}

	count, err := newNotificationService(store, queue).Broadcast(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, queue.tasks)
}
