package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/emupost/backend/internal/config"
	"github.com/emupost/backend/internal/errs"
	"github.com/emupost/backend/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookAuth(secret string) *WebhookAuth {
	nop := zerolog.Nop()
	cfg := &config.Config{}
	cfg.Bot.WebhookSecret = secret
	return NewWebhookAuth(&server.Server{Config: cfg, Logger: &nop})
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func runWebhookAuth(t *testing.T, secret, body, signature string) (error, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook/external", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenBody string
	next := func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		require.NoError(t, err)
		seenBody = string(b)
		return nil
	}

	err := newWebhookAuth(secret).Verify()(next)(c)
	return err, seenBody
}

func TestWebhookAuthValidSignature(t *testing.T) {
	body := `{"order_no":"EP-100"}`

	err, seenBody := runWebhookAuth(t, "s3cret", body, sign("s3cret", body))
	require.NoError(t, err)

	// The body must be restored for the handler to bind.
	assert.Equal(t, body, seenBody)
}

func TestWebhookAuthInvalidSignature(t *testing.T) {
	body := `{"order_no":"EP-100"}`

	err, _ := runWebhookAuth(t, "s3cret", body, sign("wrong-secret", body))
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestWebhookAuthTamperedBody(t *testing.T) {
	err, _ := runWebhookAuth(t, "s3cret", `{"order_no":"EP-999"}`, sign("s3cret", `{"order_no":"EP-100"}`))
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestWebhookAuthMissingSignature(t *testing.T) {
	err, _ := runWebhookAuth(t, "s3cret", `{}`, "")
	require.Error(t, err)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
}

func TestWebhookAuthMalformedSignature(t *testing.T) {
	err, _ := runWebhookAuth(t, "s3cret", `{}`, "sha256=not-hex")
	assert.Error(t, err)
}

func TestWebhookAuthDisabledWithoutSecret(t *testing.T) {
	err, seenBody := runWebhookAuth(t, "", `{"a":1}`, "")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, seenBody)
}
