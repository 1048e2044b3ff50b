// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"github.com/emupost/backend/internal/handler"
	"github.com/emupost/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance: global middleware chain, the
// global error handler, and all route groups.
func NewRouter(h *handler.Handlers, m *middleware.Middlewares) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = m.Global.GlobalErrorHandler

	// Order matters: request IDs and the request-scoped logger must
	// exist before the request logger and handlers run.
	e.Use(middleware.RequestID())
	e.Use(m.ContextEnhancer.EnhanceContext())
	e.Use(m.Global.RequestLogger())
	e.Use(m.Global.Recover())
	e.Use(m.Global.Secure())
	e.Use(m.Global.CORS())

	registerSystemRoutes(e, h)
	registerWebhookRoutes(e, h, m)

	return e
}
