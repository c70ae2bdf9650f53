package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coin-tracker/internal/domain"
	"coin-tracker/internal/repository"
)

const createCoinsTable = `
CREATE TABLE IF NOT EXISTS coins (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	country TEXT NOT NULL,
	century TEXT NOT NULL,
	quantity INTEGER NOT NULL
);
`

type CoinRepository struct {
	db *sql.DB
}

func NewCoinRepository(db *sql.DB) repository.CoinRepository {
	return &CoinRepository{db: db}
}

func (r *CoinRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCoinsTable); err != nil {
		return fmt.Errorf("create coins table: %w", err)
	}
	return nil
}

func (r *CoinRepository) Create(ctx context.Context, coin *domain.Coin) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO coins (name, country, century, quantity)
VALUES (?, ?, ?, ?)`,
		coin.Name,
		coin.Country,
		coin.Century,
		coin.Quantity,
	)
	if err != nil {
		return 0, fmt.Errorf("insert coin: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("coin last insert id: %w", err)
	}
	coin.ID = id
	return id, nil
}

func (r *CoinRepository) Get(ctx context.Context, id int64) (*domain.Coin, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, country, century, quantity
FROM coins
WHERE id = ?`,
		id,
	)

	var coin domain.Coin
	if err := row.Scan(&coin.ID, &coin.Name, &coin.Country, &coin.Century, &coin.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrCoinNotFound
		}
		return nil, fmt.Errorf("scan coin: %w", err)
	}
	return &coin, nil
}

// List returns coins in insertion order, narrowed by whichever filter
// fields are present. All present filters combine with AND.
func (r *CoinRepository) List(ctx context.Context, filter domain.CoinFilter) ([]domain.Coin, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Country != "" {
		clauses = append(clauses, "country = ?")
		args = append(args, filter.Country)
	}
	if filter.Century != "" {
		clauses = append(clauses, "century = ?")
		args = append(args, filter.Century)
	}
	if filter.HasQuantity {
		clauses = append(clauses, "quantity = ?")
		args = append(args, filter.Quantity)
	}

	query := `SELECT id, name, country, century, quantity FROM coins`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	defer rows.Close()

	var coins []domain.Coin
	for rows.Next() {
		var coin domain.Coin
		if err := rows.Scan(&coin.ID, &coin.Name, &coin.Country, &coin.Century, &coin.Quantity); err != nil {
			return nil, fmt.Errorf("scan coin row: %w", err)
		}
		coins = append(coins, coin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coin rows: %w", err)
	}
	return coins, nil
}

func (r *CoinRepository) Update(ctx context.Context, coin *domain.Coin) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE coins
SET name=?, country=?, century=?, quantity=?
WHERE id=?`,
		coin.Name,
		coin.Country,
		coin.Century,
		coin.Quantity,
		coin.ID,
	)
	if err != nil {
		return fmt.Errorf("update coin: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("coin update rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrCoinNotFound
	}
	return nil
}

func (r *CoinRepository) UpdateQuantity(ctx context.Context, id int64, quantity int64) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE coins
SET quantity=?
WHERE id=?`,
		quantity,
		id,
	)
	if err != nil {
		return fmt.Errorf("update coin quantity: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("coin quantity rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrCoinNotFound
	}
	return nil
}

// Delete removes the record. Deleting an id that does not exist is not an
// error; callers rely on it being idempotent.
func (r *CoinRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM coins WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete coin: %w", err)
	}
	return nil
}
