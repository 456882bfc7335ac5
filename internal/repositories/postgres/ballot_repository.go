package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

var _ repositories.BallotRepository = (*BallotRepository)(nil)

// BallotRepository handles PostgreSQL operations for Ballot
type BallotRepository struct {
	db *sqlx.DB
	ballotQueries
}

// NewBallotRepository creates a new BallotRepository
func NewBallotRepository(db *sqlx.DB) *BallotRepository {
	return &BallotRepository{db: db, ballotQueries: ballotQueries{ext: db}}
}

// maxTransactAttempts bounds how often a unit of work is re-run after a
// serialization failure or deadlock
const maxTransactAttempts = 3

// Transact runs fn inside one SERIALIZABLE transaction. When Postgres aborts
// the transaction with a serialization failure or deadlock, fn is run again
// in a fresh transaction, up to maxTransactAttempts times in total.
func (r *BallotRepository) Transact(ctx context.Context, fn func(ctx context.Context, store repositories.BallotStore) error) error {
	var err error
	for attempt := 1; attempt <= maxTransactAttempts; attempt++ {
		err = r.transactOnce(ctx, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (r *BallotRepository) transactOnce(ctx context.Context, fn func(ctx context.Context, store repositories.BallotStore) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, ballotQueries{ext: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ballotQueries runs the ballot statements on either the pool or a transaction
type ballotQueries struct {
	ext sqlx.ExtContext
}

// Insert inserts a new ballot
func (q ballotQueries) Insert(ctx context.Context, ballot *models.Ballot) error {
	if ballot.ID == "" {
		ballot.ID = utils.NewID()
	}
	ballot.CreatedAt = time.Now()
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO ballot (id, user_id, ballot, date, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ballot.ID, ballot.UserID, ballot.Number, utils.FormatDate(ballot.Date), ballot.CreatedAt)
	return translate(err)
}

// Exists checks whether a ballot number is entered for a day
func (q ballotQueries) Exists(ctx context.Context, date time.Time, number string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q.ext, &exists,
		`SELECT EXISTS (SELECT 1 FROM ballot WHERE date = $1 AND ballot = $2)`,
		utils.FormatDate(date), number)
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

// FindByDate finds all ballots for a day
func (q ballotQueries) FindByDate(ctx context.Context, date time.Time) ([]*models.Ballot, error) {
	ballots := []*models.Ballot{}
	err := sqlx.SelectContext(ctx, q.ext, &ballots,
		`SELECT id, user_id, ballot, date, created_at FROM ballot WHERE date = $1`,
		utils.FormatDate(date))
	if err != nil {
		return nil, translate(err)
	}
	for _, b := range ballots {
		b.Date = utils.DateOf(b.Date)
	}
	return ballots, nil
}

// DeleteByDate deletes the ballots of a day, keeping except if it is set
func (q ballotQueries) DeleteByDate(ctx context.Context, date time.Time, except string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if except != "" {
		res, err = q.ext.ExecContext(ctx,
			`DELETE FROM ballot WHERE date = $1 AND ballot <> $2`, utils.FormatDate(date), except)
	} else {
		res, err = q.ext.ExecContext(ctx,
			`DELETE FROM ballot WHERE date = $1`, utils.FormatDate(date))
	}
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}
