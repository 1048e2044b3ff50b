// Package errs defines the error shapes returned to API clients.
//
// Handlers and middleware return *HTTPError; the global error handler
// serializes it to JSON so every failure reaches the client with the same
// structure: a machine-readable code, a message, and optional field-level
// validation errors.
package errs

import "strings"

// FieldError is a field-level validation error.
//
//	{ "field": "chat_id", "error": "required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the error type the API serializes to clients.
//
// Override lets the global error handler decide whether the message may be
// replaced with the generic status text outside local environments.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError regardless of code or status, so callers can
// test the category with errors.Is.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy with only Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// MakeUpperCaseWithUnderscores turns HTTP status text into a stable error
// code: "Bad Request" -> "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
