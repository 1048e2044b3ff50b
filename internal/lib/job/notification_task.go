package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDeliver is the task type stored in Redis; Asynq
	// routes on it.
	TaskNotificationDeliver = "notification:deliver"
)

// DeliverPayload is the JSON payload of a notification delivery task. It
// carries everything the worker needs to send without a read back to the
// database; the row id is only for marking the outcome.
type DeliverPayload struct {
	NotificationID int64  `json:"notification_id"`
	ChatID         int64  `json:"chat_id"`
	Message        string `json:"message"`
}

// NewDeliverTask builds a delivery task for one notification row.
//
// Options: up to 3 retries, 30s handler timeout. queue should be
// "critical" for parcel events and "low" for broadcasts.
func NewDeliverTask(notificationID, chatID int64, message, queue string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeliverPayload{
		NotificationID: notificationID,
		ChatID:         chatID,
		Message:        message,
	})
	if err != nil {
		return nil, err
	}

	if queue == "" {
		queue = "default"
	}

	return asynq.NewTask(
		TaskNotificationDeliver,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(queue),
		asynq.Timeout(30*time.Second),
	), nil
}
