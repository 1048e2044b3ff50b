package handler

import (
	"github.com/emupost/backend/internal/server"
	"github.com/emupost/backend/internal/service"
)

// Handlers groups all HTTP handlers so router setup passes one object
// around instead of many.
type Handlers struct {
	Health  *HealthHandler
	Status  *StatusHandler
	Webhook *WebhookHandler
}

// NewHandlers constructs the handler container from the application
// container and the business layer.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Status:  NewStatusHandler(s, services.Notification),
		Webhook: NewWebhookHandler(s, services.Notification),
	}
}
