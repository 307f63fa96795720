package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "parkhub/internal/errors"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(errors.New("syntax error")))

	assert.True(t, isRetryable(&pq.Error{Code: "40001"}), "serialization failure retries")
	assert.True(t, isRetryable(&pq.Error{Code: "40P01"}), "deadlock retries")
	assert.False(t, isRetryable(&pq.Error{Code: "23505"}), "unique violation never retries")

	assert.True(t, isRetryable(driver.ErrBadConn))
	assert.True(t, isRetryable(fmt.Errorf("dial tcp: connection refused")))
	assert.True(t, isRetryable(fmt.Errorf("write: broken pipe")))

	// Wrapped errors must still classify.
	assert.True(t, isRetryable(fmt.Errorf("exec: %w", &pq.Error{Code: "40001"})))
}

func TestTimeoutErrClassification(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := timeoutErr(ctx, errors.New("pq: canceling statement due to user request"), time.Nanosecond)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

	// Without a deadline hit the error passes through untouched.
	plain := errors.New("syntax error")
	assert.Equal(t, plain, timeoutErr(context.Background(), plain, time.Second))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "40001"}))
	assert.False(t, isUniqueViolation(errors.New("other")))
}
