package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

// Compile-time check to ensure BallotRepository implements the interface
var _ repositories.BallotRepository = (*BallotRepository)(nil)

// BallotRepository handles MongoDB operations for Ballot
type BallotRepository struct {
	collection   *mongo.Collection
	transactions bool
	// serializes units of work inside this process; sessions add
	// atomicity against crashes when the deployment supports them
	mu sync.Mutex
}

// NewBallotRepository creates a new BallotRepository. Multi-document
// transactions are only used when transactions is true, which requires the
// server to be a replica set member.
func NewBallotRepository(db *mongo.Database, transactions bool) *BallotRepository {
	return &BallotRepository{
		collection:   db.Collection("ballots"),
		transactions: transactions,
	}
}

// EnsureIndexes creates the unique (date, ballot) index that rejects duplicates
func (r *BallotRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "ballot", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_ballot_unique"),
	})
	if err != nil {
		return fmt.Errorf("create ballot index: %w", err)
	}
	return nil
}

// Transact runs fn as one unit of work
func (r *BallotRepository) Transact(ctx context.Context, fn func(ctx context.Context, store repositories.BallotStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.transactions {
		return fn(ctx, r)
	}

	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, r)
	})
	return err
}

// Insert inserts a new ballot
func (r *BallotRepository) Insert(ctx context.Context, ballot *models.Ballot) error {
	if ballot.ID == "" {
		ballot.ID = utils.NewID()
	}
	ballot.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, ballot)
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrDuplicate
	}
	return err
}

// Exists checks whether a ballot number is entered for a day
func (r *BallotRepository) Exists(ctx context.Context, date time.Time, number string) (bool, error) {
	filter := dayFilter(date)
	filter["ballot"] = number
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByDate finds all ballots for a day
func (r *BallotRepository) FindByDate(ctx context.Context, date time.Time) ([]*models.Ballot, error) {
	cursor, err := r.collection.Find(ctx, dayFilter(date))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ballots []*models.Ballot
	if err = cursor.All(ctx, &ballots); err != nil {
		return nil, err
	}
	if ballots == nil {
		ballots = []*models.Ballot{}
	}
	return ballots, nil
}

// DeleteByDate deletes the ballots of a day, keeping except if it is set
func (r *BallotRepository) DeleteByDate(ctx context.Context, date time.Time, except string) (int64, error) {
	filter := dayFilter(date)
	if except != "" {
		filter["ballot"] = bson.M{"$ne": except}
	}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// dayFilter matches documents whose date falls on the given calendar day
func dayFilter(date time.Time) bson.M {
	startOfDay := utils.DateOf(date)
	endOfDay := startOfDay.AddDate(0, 0, 1)
	return bson.M{
		"date": bson.M{
			"$gte": startOfDay,
			"$lt":  endOfDay,
		},
	}
}

// isNoDocuments maps the driver's not-found error onto the repository one
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
