package weekly

import (
	"context"
	"database/sql"
	"errors"
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

// Finalize writes the settled week and runs apply (the coin award) in one
// transaction. The upsert only lands while the week is still open, so a
// repeated finalize fails with ErrAlreadyFinalized before any coins move.
func (r *Repository) Finalize(ctx context.Context, rec WeekRecord, apply func(tx *sqlx.Tx) error) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.GetContext(ctx2, &id, `
		INSERT INTO week_records (id, child_id, week_start, base, study, room_bonus, sport_bonus,
		                          diary_penalty, manual_bonus, manual_penalty, total, finalized, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true, now())
		ON CONFLICT (child_id, week_start) DO UPDATE
		SET base = EXCLUDED.base,
		    study = EXCLUDED.study,
		    room_bonus = EXCLUDED.room_bonus,
		    sport_bonus = EXCLUDED.sport_bonus,
		    diary_penalty = EXCLUDED.diary_penalty,
		    manual_bonus = EXCLUDED.manual_bonus,
		    manual_penalty = EXCLUDED.manual_penalty,
		    total = EXCLUDED.total,
		    finalized = true,
		    finalized_at = now()
		WHERE week_records.finalized = false
		RETURNING id
	`, uuid.New(), rec.ChildID, rec.WeekStart, rec.Base, rec.Study, rec.RoomBonus, rec.SportBonus,
		rec.DiaryPenalty, rec.ManualBonus, rec.ManualPenalty, rec.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAlreadyFinalized
	}
	if err != nil {
		return fmt.Errorf("finalize week: %w", err)
	}

	if err := apply(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, childID uuid.UUID, weekStart time.Time) (*WeekRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rec WeekRecord
	err := r.db.GetContext(ctx2, &rec, `
		SELECT id, child_id, week_start, base, study, room_bonus, sport_bonus,
		       diary_penalty, manual_bonus, manual_penalty, total, finalized, finalized_at
		FROM week_records
		WHERE child_id = $1 AND week_start = $2
	`, childID, weekStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week record: %w", err)
	}
	return &rec, nil
}

// ListFinalized returns up to limit finalized weeks, oldest first.
func (r *Repository) ListFinalized(ctx context.Context, childID uuid.UUID, limit int) ([]WeekRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]WeekRecord, 0)
	err := r.db.SelectContext(ctx2, &records, `
		SELECT id, child_id, week_start, base, study, room_bonus, sport_bonus,
		       diary_penalty, manual_bonus, manual_penalty, total, finalized, finalized_at
		FROM week_records
		WHERE child_id = $1 AND finalized = true
		ORDER BY week_start DESC
		LIMIT $2
	`, childID, limit)
	if err != nil {
		return nil, fmt.Errorf("list finalized weeks: %w", err)
	}

	// reverse into chronological order for the streak walk
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
