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

func newAccountRepo(t *testing.T) repository.AccountRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "main.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewAccountRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestAccountCreateAndLookup(t *testing.T) {
	repo := newAccountRepo(t)
	ctx := context.Background()

	account := domain.Account{Email: "a@x.com", PasswordHash: "hash"}
	id, err := repo.Create(ctx, &account)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, "hash", got.PasswordHash)
}

func TestAccountDuplicateEmail(t *testing.T) {
	repo := newAccountRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.Account{Email: "a@x.com", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Account{Email: "a@x.com", PasswordHash: "h2"})
	require.ErrorIs(t, err, repository.ErrDuplicateAccount)

	// the first registration is untouched
	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "h1", got.PasswordHash)
}

func TestAccountUnknownEmail(t *testing.T) {
	repo := newAccountRepo(t)
	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, repository.ErrAccountNotFound)
}
