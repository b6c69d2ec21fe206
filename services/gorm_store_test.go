package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentionErr() error {
	return &pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"}
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, isSerializationFailure(contentionErr()))
	assert.True(t, isSerializationFailure(fmt.Errorf("tx failed: %w", contentionErr())),
		"detected through wrapping")
	assert.False(t, isSerializationFailure(errors.New("deadline exceeded")))
	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.False(t, isSerializationFailure(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.True(t, isUniqueViolation(fmt.Errorf("create: %w", &pgconn.PgError{Code: pgUniqueViolation})))
	assert.False(t, isUniqueViolation(contentionErr()))
	assert.False(t, isUniqueViolation(nil))
}

func TestRetryOnContentionRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retryOnContention(func() error {
		calls++
		if calls < maxTxAttempts {
			return contentionErr()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, maxTxAttempts, calls)
}

func TestRetryOnContentionGivesUpAndKeepsCause(t *testing.T) {
	calls := 0
	err := retryOnContention(func() error {
		calls++
		return contentionErr()
	})

	require.Error(t, err)
	assert.Equal(t, maxTxAttempts, calls)
	assert.Contains(t, err.Error(), "transaction contention")

	// The underlying serialization failure stays reachable for callers.
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, pgSerializationFailure, pgErr.Code)
}

func TestRetryOnContentionPassesThroughOtherErrors(t *testing.T) {
	calls := 0
	want := errors.New("row not found")
	err := retryOnContention(func() error {
		calls++
		return want
	})

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, calls, "non-contention errors are not retried")
}
