package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type row struct {
	Key   string `db:"key"`
	Value int64  `db:"value"`
}

// Repository reads and writes the flat key/value rate table.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// LoadAll returns every stored override as a key/value map.
func (r *Repository) LoadAll(ctx context.Context) (map[string]int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows := make([]row, 0)
	if err := r.db.SelectContext(ctx2, &rows, `SELECT key, value FROM reward_settings`); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	values := make(map[string]int64, len(rows))
	for _, rw := range rows {
		values[rw.Key] = rw.Value
	}
	return values, nil
}

// Set upserts a single setting override.
func (r *Repository) Set(ctx context.Context, key string, value int64) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO reward_settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
