package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSchedulerRunning is returned by Start when the scheduler is not stopped
	ErrSchedulerRunning = errors.New("scheduler is already running")
)

// ValidationError reports input that can never succeed as given: a malformed
// ballot, a closed day for submission or an open day for a winner query.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Reasons, "; ")
}

// ConflictError reports an entity that already exists
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError reports a missing entity, e.g. a closed day nobody entered
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ConsistencyError reports a closed day that still holds more than one ballot.
// Either the draw for that day has not run yet or it failed half way.
type ConsistencyError struct {
	Date    time.Time
	Ballots []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("lottery day %s is closed but holds %d ballots",
		utils.FormatDate(e.Date), len(e.Ballots))
}

// SchedulerTaskError wraps anything that went wrong inside a scheduled draw
type SchedulerTaskError struct {
	Date  time.Time
	Cause error
}

func (e *SchedulerTaskError) Error() string {
	return fmt.Sprintf("scheduled draw for %s failed: %v", utils.FormatDate(e.Date), e.Cause)
}

func (e *SchedulerTaskError) Unwrap() error {
	return e.Cause
}
