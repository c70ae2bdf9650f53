package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"coin-tracker/internal/session"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return session.NewManager(client, "test-secret", time.Hour)
}

func TestCreateAndLoad(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, 7, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := m.Load(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(7), sess.AccountID)
	require.Equal(t, "a@x.com", sess.Email)
}

func TestDestroyInvalidatesToken(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, 7, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, token))

	_, err = m.Load(ctx, token)
	require.ErrorIs(t, err, session.ErrNoSession)

	// destroying again is harmless
	require.NoError(t, m.Destroy(ctx, token))
}

func TestLoadRejectsGarbageAndForeignTokens(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Load(ctx, "not-a-token")
	require.ErrorIs(t, err, session.ErrNoSession)

	other := newManager(t) // different secret storage, same signing key but empty store
	token, err := other.Create(ctx, 1, "b@x.com")
	require.NoError(t, err)

	// token signed elsewhere has no record in this manager's store
	_, err = m.Load(ctx, token)
	require.ErrorIs(t, err, session.ErrNoSession)
}
