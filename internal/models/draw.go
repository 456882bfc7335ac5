package models

import (
	"time"
)

// DayState is the derived lifecycle state of a lottery day
type DayState string

const (
	DayStateOpen          DayState = "OPEN"
	DayStateClosedUndrawn DayState = "CLOSED_UNDRAWN"
	DayStateClosedDrawn   DayState = "CLOSED_DRAWN"
)

// DrawOutcome describes what a finalize pass did to a lottery day
type DrawOutcome struct {
	Date          time.Time `json:"date"`
	Participants  int       `json:"participants"`
	WinningBallot string    `json:"winningBallot,omitempty"`
	Removed       int64     `json:"removed"`
}

// DayStatus is the response of the day state endpoint
type DayStatus struct {
	Date  string   `json:"date"`
	State DayState `json:"state"`
}
