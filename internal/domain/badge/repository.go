package badge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Award inserts the badge and runs apply (the XP credit) in one transaction.
// If the child already holds the badge nothing is inserted, apply never runs
// and Award reports false without error.
func (r *Repository) Award(ctx context.Context, b Badge, apply func(tx *sqlx.Tx) error) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx2, `
		INSERT INTO badges (id, child_id, badge_key, xp_reward, awarded_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (child_id, badge_key) DO NOTHING
	`, uuid.New(), b.ChildID, b.BadgeKey, b.XPReward)
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	if err := apply(tx); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

func (r *Repository) AwardedKeys(ctx context.Context, childID uuid.UUID) (map[string]bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	keys := make([]string, 0)
	err := r.db.SelectContext(ctx2, &keys, `
		SELECT badge_key FROM badges WHERE child_id = $1
	`, childID)
	if err != nil {
		return nil, fmt.Errorf("list badge keys: %w", err)
	}

	have := make(map[string]bool, len(keys))
	for _, k := range keys {
		have[k] = true
	}
	return have, nil
}

func (r *Repository) ListByChild(ctx context.Context, childID uuid.UUID) ([]Badge, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	badges := make([]Badge, 0)
	err := r.db.SelectContext(ctx2, &badges, `
		SELECT id, child_id, badge_key, xp_reward, awarded_at
		FROM badges
		WHERE child_id = $1
		ORDER BY awarded_at DESC
	`, childID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}
