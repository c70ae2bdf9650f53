package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/repository"
	"coin-tracker/internal/repository/sqlite"
)

func newCoinRepo(t *testing.T) repository.CoinRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "coins_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewCoinRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func seedCoins(t *testing.T, repo repository.CoinRepository) []domain.Coin {
	t.Helper()
	coins := []domain.Coin{
		{Name: "Denarius", Country: "Rome", Century: "1st", Quantity: 5},
		{Name: "Drachma", Country: "Greece", Century: "4th BC", Quantity: 2},
		{Name: "Sestertius", Country: "Rome", Century: "2nd", Quantity: 5},
	}
	for i := range coins {
		_, err := repo.Create(context.Background(), &coins[i])
		require.NoError(t, err)
	}
	return coins
}

func TestCoinListEmptyFilterReturnsAllInInsertionOrder(t *testing.T) {
	repo := newCoinRepo(t)
	seeded := seedCoins(t, repo)

	coins, err := repo.List(context.Background(), domain.CoinFilter{})
	require.NoError(t, err)
	require.Len(t, coins, len(seeded))
	for i := range seeded {
		require.Equal(t, seeded[i].Name, coins[i].Name)
	}
}

func TestCoinListFilters(t *testing.T) {
	repo := newCoinRepo(t)
	seedCoins(t, repo)
	ctx := context.Background()

	byCountry, err := repo.List(ctx, domain.CoinFilter{Country: "Rome"})
	require.NoError(t, err)
	require.Len(t, byCountry, 2)

	byCentury, err := repo.List(ctx, domain.CoinFilter{Century: "4th BC"})
	require.NoError(t, err)
	require.Len(t, byCentury, 1)
	require.Equal(t, "Drachma", byCentury[0].Name)

	byQuantity, err := repo.List(ctx, domain.CoinFilter{Quantity: 5, HasQuantity: true})
	require.NoError(t, err)
	require.Len(t, byQuantity, 2)

	combined, err := repo.List(ctx, domain.CoinFilter{Country: "Rome", Century: "2nd", Quantity: 5, HasQuantity: true})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	require.Equal(t, "Sestertius", combined[0].Name)

	none, err := repo.List(ctx, domain.CoinFilter{Country: "Rome", Quantity: 2, HasQuantity: true})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCoinQuantityZeroIsAnExactMatch(t *testing.T) {
	repo := newCoinRepo(t)
	ctx := context.Background()

	coin := domain.Coin{Name: "Obol", Country: "Greece", Century: "5th BC", Quantity: 0}
	_, err := repo.Create(ctx, &coin)
	require.NoError(t, err)

	matched, err := repo.List(ctx, domain.CoinFilter{Quantity: 0, HasQuantity: true})
	require.NoError(t, err)
	require.Len(t, matched, 1)
}

func TestCoinUpdateReplacesAllFields(t *testing.T) {
	repo := newCoinRepo(t)
	ctx := context.Background()
	seeded := seedCoins(t, repo)

	edited := domain.Coin{
		ID:       seeded[0].ID,
		Name:     "Aureus",
		Country:  "Roman Empire",
		Century:  "1st",
		Quantity: 1,
	}
	require.NoError(t, repo.Update(ctx, &edited))

	got, err := repo.Get(ctx, seeded[0].ID)
	require.NoError(t, err)
	require.Equal(t, edited, *got)
}

func TestCoinUpdateMissingIDReturnsNotFound(t *testing.T) {
	repo := newCoinRepo(t)
	err := repo.Update(context.Background(), &domain.Coin{ID: 99, Name: "x", Country: "y", Century: "z"})
	require.ErrorIs(t, err, repository.ErrCoinNotFound)
}

func TestCoinUpdateQuantityTouchesOnlyQuantity(t *testing.T) {
	repo := newCoinRepo(t)
	ctx := context.Background()
	seeded := seedCoins(t, repo)

	before, err := repo.Get(ctx, seeded[1].ID)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateQuantity(ctx, seeded[1].ID, 10))

	after, err := repo.Get(ctx, seeded[1].ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), after.Quantity)
	require.Equal(t, before.Name, after.Name)
	require.Equal(t, before.Country, after.Country)
	require.Equal(t, before.Century, after.Century)

	require.ErrorIs(t, repo.UpdateQuantity(ctx, 99, 1), repository.ErrCoinNotFound)
}

func TestCoinDeleteIsIdempotent(t *testing.T) {
	repo := newCoinRepo(t)
	ctx := context.Background()
	seeded := seedCoins(t, repo)

	require.NoError(t, repo.Delete(ctx, seeded[0].ID))

	coins, err := repo.List(ctx, domain.CoinFilter{})
	require.NoError(t, err)
	require.Len(t, coins, len(seeded)-1)
	for _, coin := range coins {
		require.NotEqual(t, seeded[0].ID, coin.ID)
	}

	// second delete of the same id is still a success
	require.NoError(t, repo.Delete(ctx, seeded[0].ID))
}
