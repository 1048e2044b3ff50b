package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []int64
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

type fakeDeliveryStore struct {
	sentIDs   []int64
	failedIDs []int64
}

func (f *fakeDeliveryStore) MarkSent(_ context.Context, id int64) error {
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func (f *fakeDeliveryStore) MarkFailed(_ context.Context, id int64) error {
	f.failedIDs = append(f.failedIDs, id)
	return nil
}

func newTestJobService(sender Sender, store DeliveryStore) *JobService {
	nop := zerolog.Nop()
	j := &JobService{logger: &nop}
	j.InitHandlers(sender, store)
	return j
}

func deliverTask(t *testing.T, p DeliverPayload) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(TaskNotificationDeliver, payload)
}

func TestHandleDeliverTask(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeDeliveryStore{}
	j := newTestJobService(sender, store)

	task := deliverTask(t, DeliverPayload{NotificationID: 3, ChatID: 42, Message: "hi"})
	require.NoError(t, j.handleDeliverTask(context.Background(), task))

	assert.Equal(t, []int64{42}, sender.sent)
	assert.Equal(t, []int64{3}, store.sentIDs)
	assert.Empty(t, store.failedIDs)
}

func TestHandleDeliverTaskSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram unreachable")}
	store := &fakeDeliveryStore{}
	j := newTestJobService(sender, store)

	task := deliverTask(t, DeliverPayload{NotificationID: 3, ChatID: 42, Message: "hi"})
	err := j.handleDeliverTask(context.Background(), task)

	// The error propagates so Asynq schedules a retry.
	require.Error(t, err)
	assert.Empty(t, store.sentIDs)
}

func TestHandleDeliverTaskUninitialized(t *testing.T) {
	nop := zerolog.Nop()
	j := &JobService{logger: &nop}

	task := deliverTask(t, DeliverPayload{NotificationID: 1, ChatID: 2})
	assert.Error(t, j.handleDeliverTask(context.Background(), task))
}

func TestHandleDeliverTaskBadPayload(t *testing.T) {
	j := newTestJobService(&fakeSender{}, &fakeDeliveryStore{})

	task := asynq.NewTask(TaskNotificationDeliver, []byte("{not json"))
	assert.Error(t, j.handleDeliverTask(context.Background(), task))
}
