package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/emupost/backend/internal/errs"
	"github.com/emupost/backend/internal/server"
	"github.com/labstack/echo/v4"
)

// SignatureHeader carries the webhook payload signature:
// "sha256=<hex of HMAC-SHA256 over the raw body>".
const SignatureHeader = "X-Webhook-Signature"

const signaturePrefix = "sha256="

// maxWebhookBody caps how much payload the signature check will read.
const maxWebhookBody = 1 << 20

// WebhookAuth verifies webhook payload signatures.
type WebhookAuth struct {
	server *server.Server
}

func NewWebhookAuth(s *server.Server) *WebhookAuth {
	return &WebhookAuth{server: s}
}

// Verify returns a middleware that checks the payload signature against
// the configured webhook secret using a constant-time compare. The body
// is restored afterwards so binding still works. An empty secret
// disables verification, which only local development should do.
func (w *WebhookAuth) Verify() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secret := w.server.Config.Bot.WebhookSecret
			if secret == "" {
				GetLogger(c).Warn().Msg("webhook signature verification disabled")
				return next(c)
			}

			body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
			if err != nil {
				return errs.NewBadRequestError("Could not read request body", false, nil, nil)
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			header := c.Request().Header.Get(SignatureHeader)
			if !strings.HasPrefix(header, signaturePrefix) {
				return errs.NewUnauthorizedError("Missing webhook signature", false)
			}

			provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
			if err != nil {
				return errs.NewUnauthorizedError("Malformed webhook signature", false)
			}

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			if !hmac.Equal(provided, mac.Sum(nil)) {
				GetLogger(c).Warn().
					Str("ip", c.RealIP()).
					Msg("webhook signature mismatch")
				return errs.NewUnauthorizedError("Invalid webhook signature", false)
			}

			return next(c)
		}
	}
}
