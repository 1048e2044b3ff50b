package repository

import (
	"github.com/emupost/backend/internal/server"
)

// Repositories is the container for all repository instances, constructed
// once at startup and handed to the service layer.
type Repositories struct {
	Users         *UsersRepository
	Notifications *NotificationsRepository
}

// NewRepositories constructs the repository container on top of the
// server's database façade.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Users:         NewUsersRepository(s.DB, s.Logger),
		Notifications: NewNotificationsRepository(s.DB, s.Logger),
	}
}
