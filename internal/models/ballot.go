package models

import (
	"time"
)

// BallotLength is the exact number of digits in a valid ballot
const BallotLength = 16

// Ballot is one lottery entry owned by a user for a single lottery day.
// Date carries no time of day: it is midnight UTC of the calendar day.
type Ballot struct {
	ID        string    `bson:"_id" db:"id" json:"id"`
	UserID    string    `bson:"userId" db:"user_id" json:"userId"`
	Number    string    `bson:"ballot" db:"ballot" json:"ballot"`
	Date      time.Time `bson:"date" db:"date" json:"date"`
	CreatedAt time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
}

// OperationResult is the {result, message} body returned by submit and winner
type OperationResult struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// ResultSuccessful is the result value of every successful operation
const ResultSuccessful = "successful"
