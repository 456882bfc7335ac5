package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

// SchedulerState is the lifecycle state of a Scheduler
type SchedulerState int

const (
	SchedulerStopped SchedulerState = iota
	SchedulerRunning
	SchedulerStopRequested
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerStopped:
		return "stopped"
	case SchedulerRunning:
		return "running"
	case SchedulerStopRequested:
		return "stop_requested"
	default:
		return fmt.Sprintf("SchedulerState(%d)", int(s))
	}
}

// Finalizer draws a closed lottery day
type Finalizer interface {
	Finalize(ctx context.Context, date time.Time) (*models.DrawOutcome, error)
}

// Scheduler runs the daily draw. A background loop wakes every poll interval
// and, once the cron schedule's next fire time has passed, finalizes the
// lottery day before the one the clock is currently in.
type Scheduler struct {
	finalizer Finalizer
	schedule  cron.Schedule
	clock     Clock
	poll      time.Duration
	log       logrus.FieldLogger

	mu    sync.Mutex
	state SchedulerState
	stop  chan struct{}
	done  chan struct{}
	next  time.Time
}

// NewScheduler creates a stopped scheduler. schedule is a standard 5-field cron
// expression evaluated in the clock's location.
func NewScheduler(finalizer Finalizer, schedule string, clock Clock, poll time.Duration, log logrus.FieldLogger) (*Scheduler, error) {
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse draw schedule %q: %w", schedule, err)
	}
	if poll <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", poll)
	}
	done := make(chan struct{})
	close(done)
	return &Scheduler{
		finalizer: finalizer,
		schedule:  parsed,
		clock:     clock,
		poll:      poll,
		log:       log.WithField("component", "draw_scheduler"),
		state:     SchedulerStopped,
		done:      done,
	}, nil
}

// Start launches the polling loop. It fails with ErrSchedulerRunning unless
// the scheduler is stopped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SchedulerStopped {
		return ErrSchedulerRunning
	}
	s.state = SchedulerRunning
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.next = s.schedule.Next(s.clock.Now())

	go s.run(s.stop, s.done)

	s.log.WithField("next_draw", s.next).Info("draw scheduler started")
	return nil
}

// Stop asks the loop to exit. It returns immediately; use Join to wait.
// Stopping a scheduler that is not running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SchedulerRunning {
		return
	}
	s.state = SchedulerStopRequested
	close(s.stop)
	s.log.Info("draw scheduler stop requested")
}

// Join blocks until the loop started by the last Start has exited. It returns
// at once if the scheduler was never started.
func (s *Scheduler) Join() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	<-done
}

// State returns the current lifecycle state
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextFire returns the instant at or after which the next draw will run
func (s *Scheduler) NextFire() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(s.poll)
	defer func() {
		ticker.Stop()
		s.mu.Lock()
		s.state = SchedulerStopped
		close(done)
		s.mu.Unlock()
		s.log.Info("draw scheduler stopped")
	}()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		select {
		case <-stop:
			return
		default:
		}

		now := s.clock.Now()
		s.mu.Lock()
		due := !now.Before(s.next)
		s.mu.Unlock()
		if !due {
			continue
		}

		s.fire(now)

		s.mu.Lock()
		s.next = s.schedule.Next(now)
		s.mu.Unlock()
	}
}

// fire finalizes the day before now. Nothing that happens in here may end
// the loop: errors and panics are logged and the next tick proceeds.
func (s *Scheduler) fire(now time.Time) {
	date := utils.DateOf(now).AddDate(0, 0, -1)
	log := s.log.WithField("date", utils.FormatDate(date))

	defer func() {
		if r := recover(); r != nil {
			err := &SchedulerTaskError{Date: date, Cause: fmt.Errorf("panic: %v", r)}
			log.WithError(err).Error("scheduled draw panicked")
		}
	}()

	log.Info("running scheduled draw")
	if _, err := s.finalizer.Finalize(context.Background(), date); err != nil {
		err = &SchedulerTaskError{Date: date, Cause: err}
		log.WithError(err).Error("scheduled draw failed")
	}
}
