// Package tenant maps authenticated accounts onto isolated per-tenant coin
// stores, one sqlite file per normalized email.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"coin-tracker/internal/repository"
	"coin-tracker/internal/repository/sqlite"
)

const (
	filePrefix = "coins_"
	fileSuffix = ".db"
)

// ErrInvalidFile is returned for filenames outside the tenant store naming
// convention, before any filesystem path is formed.
var ErrInvalidFile = errors.New("invalid tenant store filename")

var filenamePattern = regexp.MustCompile(`^coins_[a-z0-9_]+\.db$`)

// Manager lazily opens one store per tenant and caches the handles.
type Manager struct {
	dir string

	mu     sync.Mutex
	stores map[string]repository.CoinRepository
	dbs    map[string]*sql.DB
}

func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		stores: make(map[string]repository.CoinRepository),
		dbs:    make(map[string]*sql.DB),
	}
}

// Resolve returns the coin store for the account, creating the underlying
// database file and schema on first access. Safe to call on every request.
func (m *Manager) Resolve(ctx context.Context, email string) (repository.CoinRepository, error) {
	key := Key(email)
	if key == "" {
		return nil, fmt.Errorf("empty tenant key")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if repo, ok := m.stores[key]; ok {
		return repo, nil
	}

	db, err := sqlite.Open(filepath.Join(m.dir, filePrefix+key+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("open tenant store %s: %w", key, err)
	}

	repo := sqlite.NewCoinRepository(db)
	if err := repo.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tenant store %s: %w", key, err)
	}

	m.stores[key] = repo
	m.dbs[key] = db
	return repo, nil
}

// Key normalizes an email to the stable tenant key used for addressing.
func Key(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	var b strings.Builder
	for _, r := range email {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename returns the store basename for an account email.
func Filename(email string) string {
	return filePrefix + Key(email) + fileSuffix
}

// ValidFilename reports whether a name follows the tenant store convention.
// The shared credential store (main.db) and anything path-like fail here.
func ValidFilename(name string) bool {
	return filenamePattern.MatchString(name)
}

// FilePath validates the basename and resolves it under the data dir.
func (m *Manager) FilePath(name string) (string, error) {
	if !ValidFilename(name) {
		return "", ErrInvalidFile
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no such tenant store", ErrInvalidFile)
		}
		return "", fmt.Errorf("stat tenant store: %w", err)
	}
	return path, nil
}

// ListFiles returns the sorted basenames of all tenant stores on disk.
func (m *Manager) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ValidFilename(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close releases every cached store handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for key, db := range m.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close tenant store %s: %w", key, err)
		}
		delete(m.dbs, key)
		delete(m.stores, key)
	}
	return firstErr
}
