package router

import (
	"github.com/emupost/backend/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of
// business logic: liveness for load balancers and operational state for
// dashboards.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/health", h.Health.CheckHealth)
	r.GET("/status", h.Status.GetStatus)
}
