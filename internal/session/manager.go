// Package session implements cookie sessions: the cookie value is a signed
// JWT naming a server-side session record in Redis, so logout invalidates
// the token immediately instead of waiting for expiry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoSession indicates the request carries no valid live session.
var ErrNoSession = errors.New("no valid session")

// Session identifies an authenticated account for the duration of a request.
type Session struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
}

type claims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Manager creates, loads, and destroys sessions.
type Manager struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewManager(client *redis.Client, secret string, ttl time.Duration) *Manager {
	return &Manager{
		client: client,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL exposes the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create stores a new session record and returns the signed cookie value.
func (m *Manager) Create(ctx context.Context, accountID int64, email string) (string, error) {
	id := uuid.NewString()

	payload, err := json.Marshal(Session{AccountID: accountID, Email: email})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := m.client.Set(ctx, redisKey(id), payload, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Load verifies the cookie value and resolves the live session record.
// A verified token whose record is gone (logout, expiry) is no session.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	c, err := m.parse(token)
	if err != nil {
		return nil, ErrNoSession
	}

	payload, err := m.client.Get(ctx, redisKey(c.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Destroy removes the session record. An unparseable token is already dead.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	c, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.client.Del(ctx, redisKey(c.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) parse(token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}

func redisKey(id string) string {
	return "session:" + id
}
