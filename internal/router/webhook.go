package router

import (
	"net/http"

	"github.com/emupost/backend/internal/handler"
	"github.com/emupost/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// registerWebhookRoutes registers the external event surface. Every
// route in the group passes signature verification before binding.
func registerWebhookRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	webhook := r.Group("/webhook", m.Webhook.Verify())

	webhook.POST("/external", handler.Handle(
		h.Webhook.Handler,
		h.Webhook.HandleExternalEvent,
		http.StatusAccepted,
	))
}
