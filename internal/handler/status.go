package handler

import (
	"net/http"

	"github.com/emupost/backend/internal/server"
	"github.com/emupost/backend/internal/service"
	"github.com/labstack/echo/v4"
)

// StatusHandler reports runtime state: pool lifecycle, pool statistics,
// and the notification delivery backlog.
type StatusHandler struct {
	Handler
	notifications *service.NotificationService
}

func NewStatusHandler(s *server.Server, notifications *service.NotificationService) *StatusHandler {
	return &StatusHandler{
		Handler:       NewHandler(s),
		notifications: notifications,
	}
}

// GetStatus returns operational state for dashboards and debugging. It
// always answers 200; degraded dependencies show up in the payload.
func (h *StatusHandler) GetStatus(c echo.Context) error {
	response := map[string]any{
		"environment": h.server.Config.Primary.Env,
		"database": map[string]any{
			"state": h.server.DB.State(),
		},
	}

	if stat := h.server.DB.Stat(); stat != nil {
		response["database"].(map[string]any)["pool"] = map[string]any{
			"total_conns":    stat.TotalConns(),
			"idle_conns":     stat.IdleConns(),
			"acquired_conns": stat.AcquiredConns(),
			"max_conns":      stat.MaxConns(),
		}
	}

	if h.notifications != nil {
		if pending, err := h.notifications.PendingCount(c.Request().Context()); err == nil {
			response["notifications"] = map[string]any{
				"pending": pending,
			}
		}
	}

	return c.JSON(http.StatusOK, response)
}
