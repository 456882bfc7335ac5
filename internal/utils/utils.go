package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and log format of a lottery day
const DateLayout = "2006-01-02"

// DateOf drops the time of day from t, keeping the calendar day as seen in t's
// location. The result is midnight UTC so that dates compare with Equal/Before.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a lottery date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a lottery date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NewID returns a random identifier for stored records
func NewID() string {
	return uuid.NewString()
}
