package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/repository"
)

var (
	// ErrValidation indicates a missing or malformed form field.
	ErrValidation = errors.New("validation failed")
	// ErrCoinNotFound indicates an operation against a nonexistent record id.
	ErrCoinNotFound = errors.New("coin not found")
)

// CoinService owns validation and filtering over one tenant's collection.
// Every method takes the caller's resolved store handle so tenant isolation
// is decided once, at session resolution.
type CoinService interface {
	List(ctx context.Context, store repository.CoinRepository, country, century, quantity string) ([]domain.Coin, error)
	Add(ctx context.Context, store repository.CoinRepository, name, country, century, quantity string) (*domain.Coin, error)
	Edit(ctx context.Context, store repository.CoinRepository, id int64, name, country, century, quantity string) (*domain.Coin, error)
	Delete(ctx context.Context, store repository.CoinRepository, id int64) error
	UpdateQuantity(ctx context.Context, store repository.CoinRepository, id int64, quantity string) error
}

type coinService struct{}

func NewCoinService() CoinService {
	return &coinService{}
}

func (s *coinService) List(ctx context.Context, store repository.CoinRepository, country, century, quantity string) ([]domain.Coin, error) {
	filter := domain.CoinFilter{
		Country: strings.TrimSpace(country),
		Century: strings.TrimSpace(century),
	}
	if q := strings.TrimSpace(quantity); q != "" {
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: quantity must be an integer", ErrValidation)
		}
		filter.Quantity = n
		filter.HasQuantity = true
	}
	return store.List(ctx, filter)
}

func (s *coinService) Add(ctx context.Context, store repository.CoinRepository, name, country, century, quantity string) (*domain.Coin, error) {
	coin, err := buildCoin(name, country, century, quantity)
	if err != nil {
		return nil, err
	}
	if _, err := store.Create(ctx, coin); err != nil {
		return nil, err
	}
	return coin, nil
}

func (s *coinService) Edit(ctx context.Context, store repository.CoinRepository, id int64, name, country, century, quantity string) (*domain.Coin, error) {
	coin, err := buildCoin(name, country, century, quantity)
	if err != nil {
		return nil, err
	}
	coin.ID = id
	if err := store.Update(ctx, coin); err != nil {
		if errors.Is(err, repository.ErrCoinNotFound) {
			return nil, ErrCoinNotFound
		}
		return nil, err
	}
	return coin, nil
}

func (s *coinService) Delete(ctx context.Context, store repository.CoinRepository, id int64) error {
	return store.Delete(ctx, id)
}

func (s *coinService) UpdateQuantity(ctx context.Context, store repository.CoinRepository, id int64, quantity string) error {
	n, err := parseQuantity(quantity)
	if err != nil {
		return err
	}
	if err := store.UpdateQuantity(ctx, id, n); err != nil {
		if errors.Is(err, repository.ErrCoinNotFound) {
			return ErrCoinNotFound
		}
		return err
	}
	return nil
}

func buildCoin(name, country, century, quantity string) (*domain.Coin, error) {
	name = strings.TrimSpace(name)
	country = strings.TrimSpace(country)
	century = strings.TrimSpace(century)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if country == "" {
		return nil, fmt.Errorf("%w: country is required", ErrValidation)
	}
	if century == "" {
		return nil, fmt.Errorf("%w: century is required", ErrValidation)
	}
	n, err := parseQuantity(quantity)
	if err != nil {
		return nil, err
	}

	return &domain.Coin{
		Name:     name,
		Country:  country,
		Century:  century,
		Quantity: n,
	}, nil
}

// parseQuantity accepts any integer; the collection tracks whatever the
// owner types, negative counts included.
func parseQuantity(quantity string) (int64, error) {
	q := strings.TrimSpace(quantity)
	if q == "" {
		return 0, fmt.Errorf("%w: quantity is required", ErrValidation)
	}
	n, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity must be an integer", ErrValidation)
	}
	return n, nil
}
