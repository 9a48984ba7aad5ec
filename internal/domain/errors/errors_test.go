package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"loyalty/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_WithDetailsStillMatches(t *testing.T) {
	detailed := ErrInvalidReward.WithDetails("name is required")

	assert.True(t, errors.Is(errors.Wrap(detailed, "create reward"), ErrInvalidReward))
	assert.False(t, errors.Is(detailed, ErrInvalidRules))
	assert.Equal(t, "name is required", detailed.Details())
	assert.Empty(t, ErrInvalidReward.Details())
}

func TestBaseError_JoinedWithCause(t *testing.T) {
	cause := stderrors.New("context deadline exceeded")
	err := errors.Join(ErrLockTimeout, cause)

	assert.True(t, errors.Is(err, ErrLockTimeout))
	assert.True(t, errors.Is(err, cause))

	appErr, ok := errors.AsType[AppError](err)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPCode())
	}
}

func TestDatabaseExecuteError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewDatabaseExecuteError(cause, "failed to create reward")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", err.ErrorCode())
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, errors.Is(err, cause))
}
