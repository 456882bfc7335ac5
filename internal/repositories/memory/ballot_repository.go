// Package memory holds process-local repository implementations, used by the
// memory store driver and as test doubles.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

var _ repositories.BallotRepository = (*BallotRepository)(nil)

// BallotRepository keeps ballots in a map keyed by date then ballot number
type BallotRepository struct {
	mu    sync.Mutex
	byDay ballotTable
}

type ballotTable map[string]map[string]models.Ballot

// NewBallotRepository creates an empty BallotRepository
func NewBallotRepository() *BallotRepository {
	return &BallotRepository{byDay: make(ballotTable)}
}

// Transact runs fn while holding the store lock for its whole duration.
func (r *BallotRepository) Transact(ctx context.Context, fn func(ctx context.Context, store repositories.BallotStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, r.byDay)
}

// Insert stores a new ballot
func (r *BallotRepository) Insert(ctx context.Context, ballot *models.Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byDay.Insert(ctx, ballot)
}

// Exists reports whether a ballot number is entered for a date
func (r *BallotRepository) Exists(ctx context.Context, date time.Time, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byDay.Exists(ctx, date, number)
}

// FindByDate returns the ballots entered for a date
func (r *BallotRepository) FindByDate(ctx context.Context, date time.Time) ([]*models.Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byDay.FindByDate(ctx, date)
}

// DeleteByDate removes the ballots of a date except one
func (r *BallotRepository) DeleteByDate(ctx context.Context, date time.Time, except string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byDay.DeleteByDate(ctx, date, except)
}

// The table methods assume the caller holds the repository lock.

func (t ballotTable) Insert(_ context.Context, ballot *models.Ballot) error {
	key := utils.FormatDate(ballot.Date)
	day, ok := t[key]
	if !ok {
		day = make(map[string]models.Ballot)
		t[key] = day
	}
	if _, exists := day[ballot.Number]; exists {
		return repositories.ErrDuplicate
	}
	if ballot.ID == "" {
		ballot.ID = utils.NewID()
	}
	if ballot.CreatedAt.IsZero() {
		ballot.CreatedAt = time.Now()
	}
	day[ballot.Number] = *ballot
	return nil
}

func (t ballotTable) Exists(_ context.Context, date time.Time, number string) (bool, error) {
	_, ok := t[utils.FormatDate(date)][number]
	return ok, nil
}

func (t ballotTable) FindByDate(_ context.Context, date time.Time) ([]*models.Ballot, error) {
	day := t[utils.FormatDate(date)]
	ballots := make([]*models.Ballot, 0, len(day))
	for _, b := range day {
		b := b
		ballots = append(ballots, &b)
	}
	return ballots, nil
}

func (t ballotTable) DeleteByDate(_ context.Context, date time.Time, except string) (int64, error) {
	key := utils.FormatDate(date)
	day := t[key]
	var removed int64
	for number := range day {
		if except != "" && number == except {
			continue
		}
		delete(day, number)
		removed++
	}
	if len(day) == 0 {
		delete(t, key)
	}
	return removed, nil
}
