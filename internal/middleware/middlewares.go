package middleware

import (
	"github.com/emupost/backend/internal/server"
)

// Middlewares groups the middleware components used by the HTTP server,
// built once and reused during router setup.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers, and
	// the global error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer enriches each request with a request-scoped
	// logger.
	ContextEnhancer *ContextEnhancer

	// Webhook verifies signatures on the external webhook surface.
	Webhook *WebhookAuth
}

// NewMiddlewares constructs all middleware components from the
// application container.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Webhook:         NewWebhookAuth(s),
	}
}
