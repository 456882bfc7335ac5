// Package storage opens the repositories for the configured store driver.
package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/config"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/daily-lottery-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories/postgres"
	"github.com/ArowuTest/daily-lottery-backend/pkg/mongodb"
)

// Store bundles the repositories of one backend
type Store struct {
	Users   repositories.UserRepository
	Ballots repositories.BallotRepository
	close   func(ctx context.Context) error
}

// Close releases the backend connection
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the configured backend and makes sure its schema or
// indexes exist.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Store, error) {
	log = log.WithField("driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store, ballots are lost on restart")
		return &Store{
			Users:   memory.NewUserRepository(),
			Ballots: memory.NewBallotRepository(),
		}, nil

	case config.DriverMongoDB:
		client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB.Database)
		users := mongorepo.NewUserRepository(db)
		ballots := mongorepo.NewBallotRepository(db, cfg.MongoDB.Transactions)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := ballots.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"database":     cfg.MongoDB.Database,
			"transactions": cfg.MongoDB.Transactions,
		}).Info("connected to MongoDB")
		return &Store{Users: users, Ballots: ballots, close: client.Disconnect}, nil

	case config.DriverPostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := postgres.CreateSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("connected to PostgreSQL")
		return &Store{
			Users:   postgres.NewUserRepository(db),
			Ballots: postgres.NewBallotRepository(db),
			close:   func(context.Context) error { return db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
