package models

import (
	"time"
)

// User represents a registered lottery player
type User struct {
	ID           string    `bson:"_id" db:"id" json:"id"`
	Username     string    `bson:"username" db:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" db:"password_hash" json:"-"`
	FullName     string    `bson:"fullName" db:"full_name" json:"full_name"`
	EmailAddress *string   `bson:"emailAddress,omitempty" db:"email_address" json:"email_address,omitempty"`
	PhoneNumber  *string   `bson:"phoneNumber,omitempty" db:"phone_number" json:"phone_number,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" db:"updated_at" json:"updatedAt"`
}

// UserOutput is the public view of a user returned by the API
type UserOutput struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Output strips everything but the public fields.
func (u *User) Output() UserOutput {
	return UserOutput{ID: u.ID, Username: u.Username, FullName: u.FullName}
}
