package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories/memory"
)

var (
	// 2023-05-10 14:30 local to the fake clock
	now       = time.Date(2023, 5, 10, 14, 30, 0, 0, time.UTC)
	today     = time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	tomorrow  = today.AddDate(0, 0, 1)
	yesterday = today.AddDate(0, 0, -1)
)

type ballotFixture struct {
	svc   BallotService
	repo  *memory.BallotRepository
	clock *fakeClock
	log   *logrus.Logger
}

func newBallotFixture(t *testing.T) *ballotFixture {
	t.Helper()
	log, _ := newTestLogger()
	repo := memory.NewBallotRepository()
	clock := newFakeClock(now)
	engine := NewDrawEngineWithSource(rand.NewSource(1))
	return &ballotFixture{
		svc:   NewBallotService(repo, engine, clock, log),
		repo:  repo,
		clock: clock,
		log:   log,
	}
}

// seed stores ballots directly, bypassing the future-date rule
func (f *ballotFixture) seed(t *testing.T, date time.Time, numbers ...string) {
	t.Helper()
	for i, n := range numbers {
		require.NoError(t, f.repo.Insert(context.Background(), &models.Ballot{
			UserID: fmt.Sprintf("user-%d", i),
			Number: n,
			Date:   date,
		}))
	}
}

func TestIsValidBallot(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1234567891234567", true},
		{"0000000000000000", true},
		{"123456789123456", false},
		{"12345678912345678", false},
		{"12345678912345a7", false},
		{"", false},
		{"１２３４５６７８９１２３４５６７", false}, // full-width digits
		{" 234567891234567", false},
		{"-234567891234567", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidBallot(tt.in))
		})
	}
}

func TestBallotService_SubmitScenario(t *testing.T) {
	ctx := context.Background()
	f := newBallotFixture(t)

	res, err := f.svc.Submit(ctx, "U", "1234567891234567", tomorrow)
	require.NoError(t, err)
	assert.Equal(t, models.ResultSuccessful, res.Result)
	assert.Equal(t, "Ballot:'1234567891234567' is successfully submitted for the lottery day:'2023-05-11'", res.Message)

	_, err = f.svc.Submit(ctx, "U", "1234567891234567", tomorrow)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "There is already a ballot:'1234567891234567' for the day:'2023-05-11'", conflict.Message)

	list, err := f.svc.List(ctx, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567891234567"}, list)

	_, err = f.svc.Winner(ctx, tomorrow)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Error(), "is still open")
}

func TestBallotService_Submit_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		ballot  string
		date    time.Time
		reasons int
	}{
		{"today is closed", "1234567891234567", today, 1},
		{"past day", "1234567891234567", yesterday, 1},
		{"malformed ballot", "12345", tomorrow, 1},
		{"malformed ballot on past day", "abc", yesterday, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBallotFixture(t)
			_, err := f.svc.Submit(ctx, "U", tt.ballot, tt.date)

			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Len(t, validation.Reasons, tt.reasons)

			list, err := f.svc.List(ctx, tt.date)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestBallotService_Submit_SameNumberOtherDay(t *testing.T) {
	ctx := context.Background()
	f := newBallotFixture(t)

	_, err := f.svc.Submit(ctx, "U", "1234567891234567", tomorrow)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "V", "1234567891234567", tomorrow.AddDate(0, 0, 1))
	require.NoError(t, err)
}

func TestBallotService_Submit_IgnoresTimeOfDay(t *testing.T) {
	ctx := context.Background()
	f := newBallotFixture(t)

	// Late on the current day is still today.
	_, err := f.svc.Submit(ctx, "U", "1234567891234567", today.Add(23*time.Hour))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = f.svc.Submit(ctx, "U", "1234567891234567", tomorrow.Add(time.Minute))
	require.NoError(t, err)

	list, err := f.svc.List(ctx, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567891234567"}, list)
}

// closingRepo advances the clock past midnight when a unit of work begins,
// simulating a request that straddles the day boundary.
type closingRepo struct {
	*memory.BallotRepository
	clock *fakeClock
	to    time.Time
}

func (r *closingRepo) Transact(ctx context.Context, fn func(context.Context, repositories.BallotStore) error) error {
	r.clock.Set(r.to)
	return r.BallotRepository.Transact(ctx, fn)
}

func TestBallotService_Submit_RevalidatesInsideTransaction(t *testing.T) {
	ctx := context.Background()
	log, _ := newTestLogger()
	clock := newFakeClock(today.Add(23*time.Hour + 59*time.Minute + 59*time.Second))
	repo := &closingRepo{BallotRepository: memory.NewBallotRepository(), clock: clock, to: tomorrow.Add(time.Second)}
	svc := NewBallotService(repo, NewDrawEngine(), clock, log)

	_, err := svc.Submit(ctx, "U", "1234567891234567", tomorrow)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Error(), "closed while the ballot was being submitted")

	ballots, err := repo.FindByDate(ctx, tomorrow)
	require.NoError(t, err)
	assert.Empty(t, ballots)
}

func TestBallotService_Winner(t *testing.T) {
	ctx := context.Background()

	t.Run("open day", func(t *testing.T) {
		f := newBallotFixture(t)
		_, err := f.svc.Winner(ctx, today)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("no ballots", func(t *testing.T) {
		f := newBallotFixture(t)
		_, err := f.svc.Winner(ctx, today.AddDate(0, 0, -2))
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "No ballot submitted for the given date:'2023-05-08'. So, lottery event didn't take place!", notFound.Message)
	})

	t.Run("single ballot", func(t *testing.T) {
		f := newBallotFixture(t)
		f.seed(t, yesterday, "9999999999999999")
		res, err := f.svc.Winner(ctx, yesterday)
		require.NoError(t, err)
		assert.Equal(t, models.ResultSuccessful, res.Result)
		assert.Equal(t, "The winner ballot for the day:'2023-05-09' is '9999999999999999'", res.Message)
	})

	t.Run("undrawn day is a server fault", func(t *testing.T) {
		log, hook := newTestLogger()
		repo := memory.NewBallotRepository()
		svc := NewBallotService(repo, NewDrawEngine(), newFakeClock(now), log)
		for _, n := range []string{"1111111111111111", "2222222222222222"} {
			require.NoError(t, repo.Insert(ctx, &models.Ballot{UserID: "u", Number: n, Date: yesterday}))
		}

		_, err := svc.Winner(ctx, yesterday)
		var consistency *ConsistencyError
		require.ErrorAs(t, err, &consistency)
		assert.Equal(t, []string{"1111111111111111", "2222222222222222"}, consistency.Ballots)
		assert.True(t, consistency.Date.Equal(yesterday))

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.Equal(t, "2023-05-09", entry.Data["date"])
		assert.Equal(t, 2, entry.Data["count"])
		assert.Equal(t, []string{"1111111111111111", "2222222222222222"}, entry.Data["ballots"])
	})
}

func TestBallotService_FinalizeScenario(t *testing.T) {
	ctx := context.Background()
	f := newBallotFixture(t)
	threeDaysAgo := today.AddDate(0, 0, -3)
	seeded := []string{"1111111111111111", "2222222222222222", "3333333333333333"}
	f.seed(t, threeDaysAgo, seeded...)

	outcome, err := f.svc.Finalize(ctx, threeDaysAgo)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Participants)
	assert.EqualValues(t, 2, outcome.Removed)
	assert.Contains(t, seeded, outcome.WinningBallot)

	list, err := f.svc.List(ctx, threeDaysAgo)
	require.NoError(t, err)
	assert.Equal(t, []string{outcome.WinningBallot}, list)

	res, err := f.svc.Winner(ctx, threeDaysAgo)
	require.NoError(t, err)
	assert.Contains(t, res.Message, outcome.WinningBallot)
}

func TestBallotService_Finalize_Idempotent(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1, 2, 7} {
		t.Run(fmt.Sprintf("%d ballots", n), func(t *testing.T) {
			f := newBallotFixture(t)
			for i := 0; i < n; i++ {
				f.seed(t, yesterday, fmt.Sprintf("%016d", i))
			}
			// Ballots on neighbouring days are untouched.
			f.seed(t, yesterday.AddDate(0, 0, -1), "5555555555555555", "6666666666666666")

			want := n
			if want > 1 {
				want = 1
			}
			for pass := 0; pass < 2; pass++ {
				_, err := f.svc.Finalize(ctx, yesterday)
				require.NoError(t, err)

				list, err := f.svc.List(ctx, yesterday)
				require.NoError(t, err)
				assert.Len(t, list, want)
			}

			other, err := f.svc.List(ctx, yesterday.AddDate(0, 0, -1))
			require.NoError(t, err)
			assert.Len(t, other, 2)
		})
	}
}

func TestBallotService_Finalize_RejectsOpenDay(t *testing.T) {
	ctx := context.Background()
	f := newBallotFixture(t)
	_, err := f.svc.Submit(ctx, "U", "1234567891234567", tomorrow)
	require.NoError(t, err)

	for _, d := range []time.Time{today, tomorrow} {
		_, err := f.svc.Finalize(ctx, d)
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	}

	list, err := f.svc.List(ctx, tomorrow)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBallotService_DayState(t *testing.T) {
	ctx := context.Background()
	f := newBallotFixture(t)
	f.seed(t, yesterday, "1111111111111111", "2222222222222222")

	state, err := f.svc.DayState(ctx, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, models.DayStateOpen, state)

	state, err = f.svc.DayState(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, models.DayStateOpen, state)

	state, err = f.svc.DayState(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, models.DayStateClosedUndrawn, state)

	_, err = f.svc.Finalize(ctx, yesterday)
	require.NoError(t, err)

	state, err = f.svc.DayState(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, models.DayStateClosedDrawn, state)
}

// failingRepo fails every unit of work
type failingRepo struct {
	*memory.BallotRepository
}

var errStoreDown = errors.New("store down")

func (r failingRepo) Transact(context.Context, func(context.Context, repositories.BallotStore) error) error {
	return errStoreDown
}

func TestBallotService_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	log, _ := newTestLogger()
	svc := NewBallotService(failingRepo{memory.NewBallotRepository()}, NewDrawEngine(), newFakeClock(now), log)

	_, err := svc.Submit(ctx, "U", "1234567891234567", tomorrow)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = svc.Finalize(ctx, yesterday)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = svc.Winner(ctx, yesterday)
	assert.ErrorIs(t, err, errStoreDown)
}
