package service

import (
	"context"
	"fmt"

	"github.com/emupost/backend/internal/database"
	"github.com/emupost/backend/internal/errs"
	"github.com/emupost/backend/internal/lib/job"
	"github.com/emupost/backend/internal/repository"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskEnqueuer pushes tasks onto the delivery queue. *asynq.Client
// satisfies it; tests substitute a fake.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ParcelEvent is an incoming carrier event for a tracked parcel, as
// delivered to the external webhook.
type ParcelEvent struct {
	OrderNo   string
	WebhookID string
	ParcelID  string
	Status    string
}

// NotificationService turns parcel events and broadcasts into persisted
// notification rows plus delivery tasks. Sending happens in the worker;
// this service never blocks a request on the Telegram API.
type NotificationService struct {
	store  repository.Store
	users  *repository.UsersRepository
	notifs *repository.NotificationsRepository
	queue  TaskEnqueuer
	log    zerolog.Logger
}

func NewNotificationService(
	store repository.Store,
	repos *repository.Repositories,
	queue TaskEnqueuer,
	logger *zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		store:  store,
		users:  repos.Users,
		notifs: repos.Notifications,
		queue:  queue,
		log:    logger.With().Str("service", "notification").Logger(),
	}
}

// HandleParcelEvent resolves the order's owner, persists a pending
// notification, and enqueues its delivery. Users who disabled
// notifications get the row skipped entirely; the returned id is 0.
func (s *NotificationService) HandleParcelEvent(ctx context.Context, ev ParcelEvent) (int64, error) {
	result, err := s.store.Read(ctx, "orders",
		database.Conditions{"order_no": ev.OrderNo},
		database.ReadOptions{Mode: database.ReadRow})
	if err != nil {
		return 0, err
	}
	order, ok := result.(map[string]any)
	if !ok || order == nil {
		return 0, errs.NewNotFoundError("Order not found", false, nil)
	}

	user, err := s.users.FindByID(ctx, asInt64(order["user_id"]))
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, errs.NewNotFoundError("Order has no owner", false, nil)
	}

	if !user.Notifications {
		s.log.Debug().
			Int64("telegram_id", user.TelegramID).
			Str("order_no", ev.OrderNo).
			Msg("notifications disabled, skipping")
		return 0, nil
	}

	message := formatParcelMessage(ev)

	id, err := s.notifs.Create(ctx, user.ID, user.TelegramID, "parcel_update", message)
	if err != nil {
		return 0, err
	}

	task, err := job.NewDeliverTask(id, user.TelegramID, message, "critical")
	if err != nil {
		return 0, err
	}
	if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
		return 0, fmt.Errorf("failed to enqueue delivery: %w", err)
	}

	s.log.Info().
		Int64("notification_id", id).
		Str("order_no", ev.OrderNo).
		Msg("parcel event queued for delivery")
	return id, nil
}

// Broadcast persists one notification per opted-in user and enqueues the
// deliveries on the low-priority queue. Returns the recipient count.
func (s *NotificationService) Broadcast(ctx context.Context, message string) (int, error) {
	recipients, err := s.users.ListRecipients(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	rows := make([]repository.Notification, len(recipients))
	for i, user := range recipients {
		rows[i] = repository.Notification{
			UserID:  user.ID,
			ChatID:  user.TelegramID,
			Kind:    "broadcast",
			Message: message,
		}
	}

	ids, err := s.notifs.CreateBatch(ctx, rows)
	if err != nil {
		return 0, err
	}

	for i, id := range ids {
		task, err := job.NewDeliverTask(id, rows[i].ChatID, message, "low")
		if err != nil {
			return 0, err
		}
		if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
			return 0, fmt.Errorf("failed to enqueue broadcast delivery: %w", err)
		}
	}

	s.log.Info().Int("recipients", len(ids)).Msg("broadcast queued")
	return len(ids), nil
}

// PendingCount reports the delivery backlog, used by the status endpoint.
func (s *NotificationService) PendingCount(ctx context.Context) (int64, error) {
	return s.notifs.CountPending(ctx)
}

func formatParcelMessage(ev ParcelEvent) string {
	if ev.Status != "" {
		return fmt.Sprintf("Parcel <b>%s</b> (order %s): %s", ev.ParcelID, ev.OrderNo, ev.Status)
	}
	return fmt.Sprintf("Parcel <b>%s</b> (order %s) has a new tracking update", ev.ParcelID, ev.OrderNo)
}

// asInt64 normalizes numeric row values, which arrive as any.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}
