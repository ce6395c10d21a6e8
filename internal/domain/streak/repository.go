package streak

import (
	"context"
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

// Upsert writes one streak row. best_count only ever grows; GREATEST keeps
// the stored peak when the window no longer contains it.
func (r *Repository) Upsert(ctx context.Context, s Streak) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO streaks (child_id, streak_type, current_count, best_count, active, last_updated)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (child_id, streak_type) DO UPDATE
		SET current_count = EXCLUDED.current_count,
		    best_count = GREATEST(streaks.best_count, EXCLUDED.best_count),
		    active = EXCLUDED.active,
		    last_updated = now()
	`, s.ChildID, string(s.StreakType), s.CurrentCount, s.BestCount, s.Active)
	if err != nil {
		return fmt.Errorf("upsert streak %s: %w", s.StreakType, err)
	}
	return nil
}

// ListByChild returns all streak rows for a child.
func (r *Repository) ListByChild(ctx context.Context, childID uuid.UUID) ([]Streak, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	streaks := make([]Streak, 0, 4)
	err := r.db.SelectContext(ctx2, &streaks, `
		SELECT child_id, streak_type, current_count, best_count, active, last_updated
		FROM streaks
		WHERE child_id = $1
		ORDER BY streak_type
	`, childID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	return streaks, nil
}

// Get returns one streak row, or a zero row if none is stored yet.
func (r *Repository) Get(ctx context.Context, childID uuid.UUID, streakType Type) (Streak, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Streak
	err := r.db.GetContext(ctx2, &s, `
		SELECT child_id, streak_type, current_count, best_count, active, last_updated
		FROM streaks
		WHERE child_id = $1 AND streak_type = $2
	`, childID, string(streakType))
	if err != nil {
		return Streak{ChildID: childID, StreakType: streakType}, nil
	}
	return s, nil
}
