package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Sender delivers one message to a chat. The Telegram client in the
// service layer implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// DeliveryStore records delivery outcomes on notification rows.
type DeliveryStore interface {
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
}

// InitHandlers wires the delivery dependencies into the worker. It must
// run before Start; handlers fail tasks cleanly if it did not.
func (j *JobService) InitHandlers(sender Sender, store DeliveryStore) {
	j.sender = sender
	j.store = store
}

// handleDeliverTask processes one notification delivery: send the
// message, then mark the row sent. A send failure is returned so Asynq
// retries; the row is marked failed only on the final attempt.
func (j *JobService) handleDeliverTask(ctx context.Context, t *asynq.Task) error {
	if j.sender == nil || j.store == nil {
		return errors.New("job handlers not initialized")
	}

	var p DeliverPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal delivery payload: %w", err)
	}

	logger := j.logger.With().
		Int64("notification_id", p.NotificationID).
		Int64("chat_id", p.ChatID).
		Logger()

	logger.Info().Msg("processing notification delivery")

	if err := j.sender.SendMessage(ctx, p.ChatID, p.Message); err != nil {
		logger.Error().Err(err).Msg("failed to deliver notification")

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried >= maxRetry {
			if markErr := j.store.MarkFailed(ctx, p.NotificationID); markErr != nil {
				logger.Error().Err(markErr).Msg("failed to mark notification failed")
			}
		}
		return err
	}

	if err := j.store.MarkSent(ctx, p.NotificationID); err != nil {
		// The message went out; a bookkeeping failure must not trigger a
		// duplicate send.
		logger.Error().Err(err).Msg("failed to mark notification sent")
		return nil
	}

	logger.Info().Msg("notification delivered")
	return nil
}
