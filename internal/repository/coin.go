package repository

import (
	"context"
	"errors"

	"coin-tracker/internal/domain"
)

// ErrCoinNotFound is returned when an update targets a nonexistent record.
var ErrCoinNotFound = errors.New("coin not found")

// CoinRepository exposes persistence operations against one tenant's collection.
type CoinRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, coin *domain.Coin) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Coin, error)
	List(ctx context.Context, filter domain.CoinFilter) ([]domain.Coin, error)
	Update(ctx context.Context, coin *domain.Coin) error
	UpdateQuantity(ctx context.Context, id int64, quantity int64) error
	Delete(ctx context.Context, id int64) error
}
