package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentityForErrorsIs(t *testing.T) {
	err := Clone(ErrConflict, "email already used")
	wrapped := fmt.Errorf("create student: %w", err)

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "email already used", FromError(wrapped).Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestWrapAsUsesBaseMessageWhenEmpty(t *testing.T) {
	appErr := WrapAs(ErrFormat, errors.New("bad"), "")
	assert.Equal(t, ErrFormat.Message, appErr.Message)
	assert.Equal(t, "FORMAT_ERROR", appErr.Code)
}
