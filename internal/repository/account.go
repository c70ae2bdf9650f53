package repository

import (
	"context"
	"errors"

	"coin-tracker/internal/domain"
)

// ErrDuplicateAccount is returned when an email is already registered.
var ErrDuplicateAccount = errors.New("account already exists")

// ErrAccountNotFound is returned when no account matches the lookup.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository exposes persistence operations for the shared credential store.
type AccountRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, account *domain.Account) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}
