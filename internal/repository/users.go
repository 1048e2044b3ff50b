package repository

import (
	"context"
	"time"

	"github.com/emupost/backend/internal/database"
	"github.com/rs/zerolog"
)

// User is a row of the users table.
type User struct {
	ID            int64     `mapstructure:"id"`
	TelegramID    int64     `mapstructure:"telegram_id"`
	Username      string    `mapstructure:"username"`
	FirstName     string    `mapstructure:"first_name"`
	Lang          string    `mapstructure:"lang"`
	Notifications bool      `mapstructure:"notifications_enabled"`
	LastActivity  time.Time `mapstructure:"last_activity"`
	CreatedAt     time.Time `mapstructure:"created_at"`
}

// UsersRepository reads and writes the users table through the façade.
type UsersRepository struct {
	store Store
	log   zerolog.Logger
}

func NewUsersRepository(store Store, logger *zerolog.Logger) *UsersRepository {
	return &UsersRepository{
		store: store,
		log:   logger.With().Str("repository", "users").Logger(),
	}
}

// FindByTelegramID returns the user with the given Telegram id, or nil
// when none exists.
func (r *UsersRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	result, err := r.store.Read(ctx, "users",
		database.Conditions{"telegram_id": telegramID},
		database.ReadOptions{Mode: database.ReadRow})
	if err != nil {
		return nil, err
	}

	row, ok := asRow(result)
	if !ok {
		return nil, nil
	}
	return decodeRow[User](row)
}

// FindByID returns the user with the given primary key, or nil when none
// exists.
func (r *UsersRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	result, err := r.store.Read(ctx, "users",
		database.Conditions{"id": id},
		database.ReadOptions{Mode: database.ReadRow})
	if err != nil {
		return nil, err
	}

	row, ok := asRow(result)
	if !ok {
		return nil, nil
	}
	return decodeRow[User](row)
}

// UpsertFromTelegram creates the user on first contact, or refreshes the
// profile fields and last activity on every later one. Returns the user id.
func (r *UsersRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, username, firstName string) (int64, error) {
	existing, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()

	if existing == nil {
		id, err := r.store.Create(ctx, "users", map[string]any{
			"telegram_id":           telegramID,
			"username":              username,
			"first_name":            firstName,
			"lang":                  "en",
			"notifications_enabled": true,
			"last_activity":         now,
		}, "id")
		if err != nil {
			return 0, err
		}
		r.log.Info().Int64("telegram_id", telegramID).Msg("user registered")
		return toInt64(id), nil
	}

	_, err = r.store.Update(ctx, "users", map[string]any{
		"username":      username,
		"first_name":    firstName,
		"last_activity": now,
	}, database.Conditions{"telegram_id": telegramID}, "")
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// SetLang updates the user's interface language.
func (r *UsersRepository) SetLang(ctx context.Context, telegramID int64, lang string) error {
	_, err := r.store.Update(ctx, "users",
		map[string]any{"lang": lang},
		database.Conditions{"telegram_id": telegramID}, "")
	return err
}

// SetNotifications flips the user's notification opt-in flag.
func (r *UsersRepository) SetNotifications(ctx context.Context, telegramID int64, enabled bool) error {
	_, err := r.store.Update(ctx, "users",
		map[string]any{"notifications_enabled": enabled},
		database.Conditions{"telegram_id": telegramID}, "")
	return err
}

// TouchActivity bumps last_activity to now.
func (r *UsersRepository) TouchActivity(ctx context.Context, telegramID int64) error {
	_, err := r.store.Update(ctx, "users",
		map[string]any{"last_activity": time.Now().UTC()},
		database.Conditions{"telegram_id": telegramID}, "")
	return err
}

// ListRecipients returns users who have notifications enabled, oldest
// first, for broadcast delivery.
func (r *UsersRepository) ListRecipients(ctx context.Context, limit int) ([]User, error) {
	result, err := r.store.Read(ctx, "users",
		database.Conditions{"notifications_enabled": true},
		database.ReadOptions{
			OrderBy: "created_at ASC",
			Limit:   limit,
		})
	if err != nil {
		return nil, err
	}
	return decodeRows[User](asRows(result))
}

// Count reports the total number of registered users.
func (r *UsersRepository) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, "users", nil)
}

// toInt64 normalizes the returning-column value, which arrives as any.
func toInt64(v any) int64 {
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
