package models

import "strconv"

// AccountID is the numeric identifier for a user account.
type AccountID int

func (id AccountID) String() string {
	return strconv.Itoa(int(id))
}

// Account represents a user account known to the directory
type Account struct {
	ID       AccountID `json:"id" db:"id"`
	Login    string    `json:"login" db:"login"`
	Email    string    `json:"email" db:"email"`
	FullName string    `json:"full_name,omitempty" db:"full_name"`
	Active   bool      `json:"active" db:"active"`
}
