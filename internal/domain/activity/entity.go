package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DayRecord is the raw daily activity row the scoring pipeline reads. One row
// per (child, date); saves upsert in place.
type DayRecord struct {
	ChildID      uuid.UUID     `db:"child_id" json:"child_id"`
	Date         time.Time     `db:"date" json:"date"`
	RoomOK       bool          `db:"room_ok" json:"room_ok"`
	Grades       pq.Int64Array `db:"grades" json:"grades"`
	SportMinutes int64         `db:"sport_minutes" json:"sport_minutes"`
	DiaryMissed  bool          `db:"diary_missed" json:"diary_missed"`

	// AwardedCoins tracks what the day has already paid out, so re-saving a
	// day awards only the difference.
	AwardedCoins int64     `db:"awarded_coins" json:"awarded_coins"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SaveResult reports what a day save changed.
type SaveResult struct {
	CoinsDelta    int64    `json:"coins_delta"`
	AwardedBadges []string `json:"awarded_badges"`
}
