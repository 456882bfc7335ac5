package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/metrics"
	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

// BallotService defines the ballot lifecycle operations
type BallotService interface {
	// Submit enters a ballot for a future lottery day on behalf of userID
	Submit(ctx context.Context, userID, ballot string, date time.Time) (*models.OperationResult, error)
	// List returns the ballots still held for a day
	List(ctx context.Context, date time.Time) ([]string, error)
	// Winner returns the winning ballot of a closed day
	Winner(ctx context.Context, date time.Time) (*models.OperationResult, error)
	// Finalize draws a closed day, keeping only the winning ballot
	Finalize(ctx context.Context, date time.Time) (*models.DrawOutcome, error)
	// DayState reports where a day is in its lifecycle
	DayState(ctx context.Context, date time.Time) (models.DayState, error)
}

// Compile-time check to ensure ballotService implements BallotService
var _ BallotService = (*ballotService)(nil)

type ballotService struct {
	repo   repositories.BallotRepository
	engine *DrawEngine
	clock  Clock
	log    logrus.FieldLogger
}

// NewBallotService creates a new BallotService implementation
func NewBallotService(repo repositories.BallotRepository, engine *DrawEngine, clock Clock, log logrus.FieldLogger) BallotService {
	return &ballotService{
		repo:   repo,
		engine: engine,
		clock:  clock,
		log:    log.WithField("component", "ballot_service"),
	}
}

// IsValidBallot reports whether s is exactly BallotLength ASCII decimal digits
func IsValidBallot(s string) bool {
	if len(s) != models.BallotLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isPast reports whether the lottery day has closed, i.e. today > date
func (s *ballotService) isPast(date time.Time) bool {
	return Today(s.clock).After(date)
}

// isOpenForSubmission reports whether date is strictly after today
func (s *ballotService) isOpenForSubmission(date time.Time) bool {
	return date.After(Today(s.clock))
}

func (s *ballotService) validateSubmission(ballot string, date time.Time) error {
	var reasons []string
	if !IsValidBallot(ballot) {
		reasons = append(reasons, fmt.Sprintf(
			"Ballot:'%s' does not conform with the expected format. It should be a %d-digit string!",
			ballot, models.BallotLength))
	}
	if !s.isOpenForSubmission(date) {
		reasons = append(reasons, fmt.Sprintf(
			"A ballot can only be submitted for a future date, not for '%s'!", utils.FormatDate(date)))
	}
	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// Submit enters a ballot
func (s *ballotService) Submit(ctx context.Context, userID, ballot string, date time.Time) (*models.OperationResult, error) {
	date = utils.DateOf(date)
	log := s.log.WithFields(logrus.Fields{"ballot": ballot, "date": utils.FormatDate(date), "user_id": userID})

	if err := s.validateSubmission(ballot, date); err != nil {
		log.WithError(err).Warn("ballot rejected")
		return nil, err
	}

	err := s.repo.Transact(ctx, func(ctx context.Context, store repositories.BallotStore) error {
		// The request may have been held across midnight: finalize only ever
		// touches closed days, so this check keeps the two disjoint.
		if !s.isOpenForSubmission(date) {
			return &ValidationError{Reasons: []string{fmt.Sprintf(
				"The lottery day '%s' closed while the ballot was being submitted!", utils.FormatDate(date))}}
		}
		exists, err := store.Exists(ctx, date, ballot)
		if err != nil {
			return fmt.Errorf("check ballot existence: %w", err)
		}
		if exists {
			return duplicateBallot(ballot, date)
		}
		err = store.Insert(ctx, &models.Ballot{UserID: userID, Number: ballot, Date: date})
		if errors.Is(err, repositories.ErrDuplicate) {
			return duplicateBallot(ballot, date)
		}
		if err != nil {
			return fmt.Errorf("insert ballot: %w", err)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("ballot submission failed")
		return nil, err
	}

	metrics.BallotSubmitted()
	log.Info("ballot submitted")
	return &models.OperationResult{
		Result:  models.ResultSuccessful,
		Message: fmt.Sprintf("Ballot:'%s' is successfully submitted for the lottery day:'%s'", ballot, utils.FormatDate(date)),
	}, nil
}

func duplicateBallot(ballot string, date time.Time) error {
	return &ConflictError{Message: fmt.Sprintf(
		"There is already a ballot:'%s' for the day:'%s'", ballot, utils.FormatDate(date))}
}

// List returns the ballot numbers held for a day, sorted
func (s *ballotService) List(ctx context.Context, date time.Time) ([]string, error) {
	numbers, err := s.numbersOn(ctx, s.repo, utils.DateOf(date))
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

func (s *ballotService) numbersOn(ctx context.Context, store repositories.BallotStore, date time.Time) ([]string, error) {
	ballots, err := store.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("find ballots for %s: %w", utils.FormatDate(date), err)
	}
	numbers := make([]string, 0, len(ballots))
	for _, b := range ballots {
		numbers = append(numbers, b.Number)
	}
	sort.Strings(numbers)
	return numbers, nil
}

// Winner returns the surviving ballot of a closed day
func (s *ballotService) Winner(ctx context.Context, date time.Time) (*models.OperationResult, error) {
	date = utils.DateOf(date)
	day := utils.FormatDate(date)

	if !s.isPast(date) {
		err := &ValidationError{Reasons: []string{fmt.Sprintf(
			"The lottery for date:'%s' is still open. So, there is no winner yet!", day)}}
		s.log.WithField("date", day).Warn(err.Error())
		return nil, err
	}

	var numbers []string
	err := s.repo.Transact(ctx, func(ctx context.Context, store repositories.BallotStore) error {
		var err error
		numbers, err = s.numbersOn(ctx, store, date)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch len(numbers) {
	case 0:
		s.log.WithField("date", day).Warn("no ballot submitted, no draw took place")
		return nil, &NotFoundError{Message: fmt.Sprintf(
			"No ballot submitted for the given date:'%s'. So, lottery event didn't take place!", day)}
	case 1:
		return &models.OperationResult{
			Result:  models.ResultSuccessful,
			Message: fmt.Sprintf("The winner ballot for the day:'%s' is '%s'", day, numbers[0]),
		}, nil
	default:
		err := &ConsistencyError{Date: date, Ballots: numbers}
		s.log.WithFields(logrus.Fields{
			"date":    day,
			"count":   len(numbers),
			"ballots": numbers,
		}).Error("closed lottery day holds more than one ballot")
		return nil, err
	}
}

// Finalize draws a winner for a closed day and deletes every other ballot of
// that day in the same unit of work. Running it again is a no-op.
func (s *ballotService) Finalize(ctx context.Context, date time.Time) (*models.DrawOutcome, error) {
	date = utils.DateOf(date)
	day := utils.FormatDate(date)
	log := s.log.WithField("date", day)

	if !s.isPast(date) {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf(
			"The lottery day '%s' is still open and cannot be drawn!", day)}}
	}

	start := time.Now()
	outcome := &models.DrawOutcome{Date: date}
	err := s.repo.Transact(ctx, func(ctx context.Context, store repositories.BallotStore) error {
		numbers, err := s.numbersOn(ctx, store, date)
		if err != nil {
			return err
		}
		outcome.Participants = len(numbers)
		if len(numbers) == 0 {
			return nil
		}
		outcome.WinningBallot = s.engine.SelectWinner(numbers)
		outcome.Removed, err = store.DeleteByDate(ctx, date, outcome.WinningBallot)
		if err != nil {
			return fmt.Errorf("clear ballots for %s: %w", day, err)
		}
		return nil
	})
	if err != nil {
		metrics.ObserveDraw(metrics.DrawOutcomeFailed, time.Since(start))
		return nil, err
	}

	if outcome.Participants == 0 {
		metrics.ObserveDraw(metrics.DrawOutcomeEmpty, time.Since(start))
		log.Warn("For a lottery to be drawn, at least one ballot should exist!")
		return outcome, nil
	}

	metrics.ObserveDraw(metrics.DrawOutcomeDrawn, time.Since(start))
	log.WithFields(logrus.Fields{
		"winning_ballot": outcome.WinningBallot,
		"participants":   outcome.Participants,
		"removed":        outcome.Removed,
	}).Info("lottery draw completed")
	return outcome, nil
}

// DayState derives OPEN / CLOSED_UNDRAWN / CLOSED_DRAWN for a day
func (s *ballotService) DayState(ctx context.Context, date time.Time) (models.DayState, error) {
	date = utils.DateOf(date)
	if !s.isPast(date) {
		return models.DayStateOpen, nil
	}
	numbers, err := s.numbersOn(ctx, s.repo, date)
	if err != nil {
		return "", err
	}
	if len(numbers) > 1 {
		return models.DayStateClosedUndrawn, nil
	}
	return models.DayStateClosedDrawn, nil
}
