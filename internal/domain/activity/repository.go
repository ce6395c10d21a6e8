package activity

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

// SaveAndAward upserts the day record and settles the award difference in a
// single transaction. The day row is locked so concurrent saves of the same
// day cannot double-pay; apply is called with the same transaction so the
// wallet move and the awarded_coins bookkeeping commit together.
func (r *Repository) SaveAndAward(ctx context.Context, rec DayRecord, award int64, apply func(tx *sqlx.Tx, delta int64) error) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var prevAwarded int64
	err = tx.GetContext(ctx2, &prevAwarded, `
		INSERT INTO day_records (child_id, date, room_ok, grades, sport_minutes, diary_missed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (child_id, date) DO UPDATE
		SET room_ok = EXCLUDED.room_ok,
		    grades = EXCLUDED.grades,
		    sport_minutes = EXCLUDED.sport_minutes,
		    diary_missed = EXCLUDED.diary_missed,
		    updated_at = now()
		RETURNING awarded_coins
	`, rec.ChildID, rec.Date, rec.RoomOK, rec.Grades, rec.SportMinutes, rec.DiaryMissed)
	if err != nil {
		return 0, fmt.Errorf("upsert day record: %w", err)
	}

	delta := award - prevAwarded
	if delta != 0 {
		if err := apply(tx, delta); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx2, `
			UPDATE day_records SET awarded_coins = $3 WHERE child_id = $1 AND date = $2
		`, rec.ChildID, rec.Date, award); err != nil {
			return 0, fmt.Errorf("update awarded coins: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return delta, nil
}

// Range returns day records in [from, to], oldest first.
func (r *Repository) Range(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]DayRecord, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	records := make([]DayRecord, 0)
	err := r.db.SelectContext(ctx2, &records, `
		SELECT child_id, date, room_ok, grades, sport_minutes, diary_missed, awarded_coins, updated_at
		FROM day_records
		WHERE child_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, childID, from, to)
	if err != nil {
		return nil, fmt.Errorf("range day records: %w", err)
	}
	return records, nil
}
