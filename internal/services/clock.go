package services

import (
	"time"

	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

// Clock is the source of the current time. Lottery days roll over at midnight
// in the clock's location.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Today returns the current lottery date according to clock
func Today(clock Clock) time.Time {
	return utils.DateOf(clock.Now())
}
