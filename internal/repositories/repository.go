package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// BallotStore is the set of ballot operations available inside a unit of work.
// Dates are calendar days as produced by utils.DateOf.
type BallotStore interface {
	// Insert stores a new ballot. ErrDuplicate if the number already exists for the date.
	Insert(ctx context.Context, ballot *models.Ballot) error
	// Exists reports whether number is already entered for date.
	Exists(ctx context.Context, date time.Time, number string) (bool, error)
	// FindByDate returns every ballot entered for date, in no particular order.
	FindByDate(ctx context.Context, date time.Time) ([]*models.Ballot, error)
	// DeleteByDate removes every ballot for date except the one whose number is
	// except. An empty except removes all of them. Returns the number removed.
	DeleteByDate(ctx context.Context, date time.Time, except string) (int64, error)
}

// BallotRepository defines the interface for ballot data operations.
// Each lifecycle call runs inside one Transact so that check-then-insert and
// read-then-delete are atomic with respect to each other.
type BallotRepository interface {
	BallotStore
	Transact(ctx context.Context, fn func(ctx context.Context, store BallotStore) error) error
}
