// Command import bulk-submits ballots from a CSV file with the header
// username,ballot,date. Every row goes through the normal submission rules.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/config"
	"github.com/ArowuTest/daily-lottery-backend/internal/logging"
	"github.com/ArowuTest/daily-lottery-backend/internal/services"
	"github.com/ArowuTest/daily-lottery-backend/internal/storage"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("CSV file path is required as a command line argument")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	if err := checkDriver(cfg); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer store.Close(ctx)

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.WithError(err).Fatal("Failed to open CSV file")
	}
	defer file.Close()

	users := services.NewUserService(store.Users)
	ballots := services.NewBallotService(store.Ballots, services.NewDrawEngine(), services.SystemClock{Location: loc}, log)

	summary, err := importBallots(ctx, file, users, ballots, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to import ballots")
	}
	log.WithFields(logrus.Fields{
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
	}).Info("Ballots imported")
}

// checkDriver rejects stores that do not outlive the process
func checkDriver(cfg *config.Config) error {
	if cfg.Store.Driver == config.DriverMemory {
		return fmt.Errorf("store driver %q keeps nothing after the import exits, configure %q or %q",
			cfg.Store.Driver, config.DriverMongoDB, config.DriverPostgres)
	}
	return nil
}

type importSummary struct {
	Imported int
	Skipped  int
}

// importBallots submits every data row of r. Rows that fail are logged and
// skipped; only an unreadable file or a store failure aborts the import.
func importBallots(ctx context.Context, r io.Reader, users *services.UserService, ballots services.BallotService, log logrus.FieldLogger) (importSummary, error) {
	var summary importSummary

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return summary, fmt.Errorf("parse CSV file: %w", err)
	}
	if len(records) < 2 {
		return summary, errors.New("CSV file is empty or has only header")
	}

	userIDs := make(map[string]string)
	for i, record := range records[1:] {
		row := log.WithField("row", i+2)
		if len(record) < 3 {
			row.Warn("record has less than 3 fields, skipping")
			summary.Skipped++
			continue
		}
		username, number := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])

		date, err := utils.ParseDate(strings.TrimSpace(record[2]))
		if err != nil {
			row.WithError(err).Warn("invalid date, skipping")
			summary.Skipped++
			continue
		}

		userID, ok := userIDs[username]
		if !ok {
			user, err := users.GetUserByUsername(ctx, username)
			var notFound *services.NotFoundError
			if errors.As(err, &notFound) {
				row.WithField("username", username).Warn("unknown user, skipping")
				summary.Skipped++
				continue
			}
			if err != nil {
				return summary, err
			}
			userID = user.ID
			userIDs[username] = userID
		}

		if _, err := ballots.Submit(ctx, userID, number, date); err != nil {
			var (
				validation *services.ValidationError
				conflict   *services.ConflictError
			)
			if errors.As(err, &validation) || errors.As(err, &conflict) {
				row.WithError(err).Warn("ballot rejected, skipping")
				summary.Skipped++
				continue
			}
			return summary, err
		}
		summary.Imported++
	}

	return summary, nil
}
