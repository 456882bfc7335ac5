package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
)

const (
	uniqueViolation      = pq.ErrorCode("23505")
	serializationFailure = pq.ErrorCode("40001")
	deadlockDetected     = pq.ErrorCode("40P01")
)

// translate maps driver errors onto the repository sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repositories.ErrDuplicate
	}
	return err
}

// isRetryable reports whether err aborted a transaction that may succeed when
// run again
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected
}
