package repository

import (
	"context"
	"time"

	"github.com/emupost/backend/internal/database"
	"github.com/rs/zerolog"
)

// Notification statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is a row of the notifications table: one outbound message
// owed to a chat, created by a webhook event and delivered by the worker.
type Notification struct {
	ID        int64      `mapstructure:"id"`
	UserID    int64      `mapstructure:"user_id"`
	ChatID    int64      `mapstructure:"chat_id"`
	Kind      string     `mapstructure:"kind"`
	Message   string     `mapstructure:"message"`
	Status    string     `mapstructure:"status"`
	CreatedAt time.Time  `mapstructure:"created_at"`
	SentAt    *time.Time `mapstructure:"sent_at"`
}

// NotificationsRepository reads and writes the notifications table
// through the façade.
type NotificationsRepository struct {
	store Store
	log   zerolog.Logger
}

func NewNotificationsRepository(store Store, logger *zerolog.Logger) *NotificationsRepository {
	return &NotificationsRepository{
		store: store,
		log:   logger.With().Str("repository", "notifications").Logger(),
	}
}

// Create persists a pending notification and returns its id.
func (r *NotificationsRepository) Create(ctx context.Context, userID, chatID int64, kind, message string) (int64, error) {
	id, err := r.store.Create(ctx, "notifications", map[string]any{
		"user_id": userID,
		"chat_id": chatID,
		"kind":    kind,
		"message": message,
		"status":  NotificationPending,
	}, "id")
	if err != nil {
		return 0, err
	}
	return toInt64(id), nil
}

// CreateBatch persists one pending notification per chat in bulk, for
// broadcast fan-out. Returns the created ids in insertion order.
func (r *NotificationsRepository) CreateBatch(ctx context.Context, rows []Notification) ([]int64, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	payload := make([]map[string]any, len(rows))
	for i, n := range rows {
		payload[i] = map[string]any{
			"user_id": n.UserID,
			"chat_id": n.ChatID,
			"kind":    n.Kind,
			"message": n.Message,
			"status":  NotificationPending,
		}
	}

	_, returned, err := r.store.BulkCreate(ctx, "notifications", payload, 0, "id")
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(returned))
	for i, v := range returned {
		ids[i] = toInt64(v)
	}
	return ids, nil
}

// Get returns the notification with the given id, or nil when none
// exists.
func (r *NotificationsRepository) Get(ctx context.Context, id int64) (*Notification, error) {
	result, err := r.store.Read(ctx, "notifications",
		database.Conditions{"id": id},
		database.ReadOptions{Mode: database.ReadRow})
	if err != nil {
		return nil, err
	}

	row, ok := asRow(result)
	if !ok {
		return nil, nil
	}
	return decodeRow[Notification](row)
}

// MarkSent records successful delivery.
func (r *NotificationsRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.store.Update(ctx, "notifications", map[string]any{
		"status":  NotificationSent,
		"sent_at": time.Now().UTC(),
	}, database.Conditions{"id": id}, "")
	return err
}

// MarkFailed records a delivery failure after retries are exhausted.
func (r *NotificationsRepository) MarkFailed(ctx context.Context, id int64) error {
	_, err := r.store.Update(ctx, "notifications",
		map[string]any{"status": NotificationFailed},
		database.Conditions{"id": id}, "")
	return err
}

// ListPending returns undelivered notifications, oldest first.
func (r *NotificationsRepository) ListPending(ctx context.Context, limit int) ([]Notification, error) {
	result, err := r.store.Read(ctx, "notifications",
		database.Conditions{"status": NotificationPending},
		database.ReadOptions{
			OrderBy: "created_at ASC",
			Limit:   limit,
		})
	if err != nil {
		return nil, err
	}
	return decodeRows[Notification](asRows(result))
}

// CountPending reports the delivery backlog size.
func (r *NotificationsRepository) CountPending(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, "notifications",
		database.Conditions{"status": NotificationPending})
}
