package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coin-tracker/internal/repository"
	"coin-tracker/internal/repository/sqlite"
	"coin-tracker/internal/service"
)

func newCoinStore(t *testing.T) repository.CoinRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "coins_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewCoinRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestAddValidation(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)
	ctx := context.Background()

	cases := []struct {
		name, country, century, quantity string
	}{
		{"", "Rome", "1st", "5"},
		{"Denarius", "", "1st", "5"},
		{"Denarius", "Rome", "", "5"},
		{"Denarius", "Rome", "1st", ""},
		{"Denarius", "Rome", "1st", "lots"},
	}
	for _, tc := range cases {
		_, err := svc.Add(ctx, store, tc.name, tc.country, tc.century, tc.quantity)
		require.ErrorIs(t, err, service.ErrValidation)
	}
}

func TestAddAcceptsNegativeQuantity(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)

	coin, err := svc.Add(context.Background(), store, "Denarius", "Rome", "1st", "-3")
	require.NoError(t, err)
	require.Equal(t, int64(-3), coin.Quantity)
}

func TestEditRoundTrip(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)
	ctx := context.Background()

	coin, err := svc.Add(ctx, store, "Denarius", "Rome", "1st", "5")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, store, coin.ID, "Aureus", "Roman Empire", "2nd", "1")
	require.NoError(t, err)

	coins, err := svc.List(ctx, store, "", "", "")
	require.NoError(t, err)
	require.Len(t, coins, 1)
	require.Equal(t, "Aureus", coins[0].Name)
	require.Equal(t, "Roman Empire", coins[0].Country)
	require.Equal(t, "2nd", coins[0].Century)
	require.Equal(t, int64(1), coins[0].Quantity)
}

func TestEditMissingCoin(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)

	_, err := svc.Edit(context.Background(), store, 42, "Aureus", "Rome", "1st", "1")
	require.ErrorIs(t, err, service.ErrCoinNotFound)
}

func TestUpdateQuantity(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)
	ctx := context.Background()

	coin, err := svc.Add(ctx, store, "Denarius", "Rome", "1st", "5")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuantity(ctx, store, coin.ID, "10"))

	coins, err := svc.List(ctx, store, "", "", "")
	require.NoError(t, err)
	require.Equal(t, int64(10), coins[0].Quantity)
	require.Equal(t, "Denarius", coins[0].Name)

	require.ErrorIs(t, svc.UpdateQuantity(ctx, store, coin.ID, "many"), service.ErrValidation)
	require.ErrorIs(t, svc.UpdateQuantity(ctx, store, 42, "1"), service.ErrCoinNotFound)
}

func TestListQuantityFilterMustBeNumeric(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)

	_, err := svc.List(context.Background(), store, "", "", "plenty")
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestDeleteIsIdempotentThroughService(t *testing.T) {
	svc := service.NewCoinService()
	store := newCoinStore(t)
	ctx := context.Background()

	coin, err := svc.Add(ctx, store, "Denarius", "Rome", "1st", "5")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, store, coin.ID))
	require.NoError(t, svc.Delete(ctx, store, coin.ID))

	coins, err := svc.List(ctx, store, "", "", "")
	require.NoError(t, err)
	require.Empty(t, coins)
}
