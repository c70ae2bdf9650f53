package domain

import "time"

// Account is a registered credential store entry.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
