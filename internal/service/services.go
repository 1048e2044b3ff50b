// Package service contains the business logic. It sits between the
// handler and repository layers: handlers pass validated data in,
// services perform the operations and call repositories for data access.
package service

import (
	"github.com/emupost/backend/internal/lib/job"
	"github.com/emupost/backend/internal/repository"
	"github.com/emupost/backend/internal/server"
)

type Services struct {
	Notification *NotificationService
	Job          *job.JobService
}

// NewService constructs the service container and wires the job worker's
// delivery dependencies (Telegram sender + notifications repository).
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	telegram := NewTelegramClient(s.Config, s.Logger)
	s.Job.InitHandlers(telegram, repos.Notifications)

	notification := NewNotificationService(s.DB, repos, s.Job.Client, s.Logger)

	return &Services{
		Notification: notification,
		Job:          s.Job,
	}, nil
}
