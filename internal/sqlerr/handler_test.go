package sqlerr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/emupost/backend/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCode(t *testing.T) {
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, ForeignKeyViolation, MapCode("23503"))
	assert.Equal(t, NotNullViolation, MapCode("23502"))
	assert.Equal(t, CheckViolation, MapCode("23514"))
	assert.Equal(t, QueryCanceled, MapCode("57014"))
	assert.Equal(t, ConnectionFailure, MapCode("08006"))
	assert.Equal(t, Other, MapCode("42601"))
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	pgerr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_telegram_id_key"`,
		TableName:      "users",
		ConstraintName: "users_telegram_id_key",
	}

	err := HandleError(pgerr)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "USER_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "A user with this Telegram Id already exists", httpErr.Message)
	assert.True(t, httpErr.Override)
}

func TestHandleErrorForeignKeyViolation(t *testing.T) {
	pgerr := &pgconn.PgError{
		Severity:   "ERROR",
		Code:       "23503",
		TableName:  "orders",
		ColumnName: "user_id",
	}

	err := HandleError(pgerr)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "ORDER_NOT_FOUND", httpErr.Code)
	assert.Equal(t, "The referenced User does not exist", httpErr.Message)
}

func TestHandleErrorNotNullViolation(t *testing.T) {
	pgerr := &pgconn.PgError{
		Severity:   "ERROR",
		Code:       "23502",
		TableName:  "notifications",
		ColumnName: "chat_id",
	}

	err := HandleError(pgerr)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "NOTIFICATION_REQUIRED", httpErr.Code)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "chat_id", httpErr.Errors[0].Field)
}

func TestHandleErrorNoRows(t *testing.T) {
	err := HandleError(pgx.ErrNoRows)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestHandleErrorPassesThroughHTTPError(t *testing.T) {
	original := errs.NewNotFoundError("user not found", true, nil)
	assert.Same(t, original, HandleError(original))
}

func TestHandleErrorUnknown(t *testing.T) {
	err := HandleError(errors.New("boom"))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "email", extractColumnForUniqueViolation("users", "unique_users_email"))
	assert.Equal(t, "telegram_id", extractColumnForUniqueViolation("users", "users_telegram_id_key"))
	assert.Equal(t, "", extractColumnForUniqueViolation("users", "some_random_index"))
}
