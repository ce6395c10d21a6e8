package weekly

import (
	"time"

	"github.com/google/uuid"
)

// WeekRecord is one settled week. Finalized records are immutable; later
// corrections go through explicit manual ledger adjustments.
type WeekRecord struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ChildID       uuid.UUID  `db:"child_id" json:"child_id"`
	WeekStart     time.Time  `db:"week_start" json:"week_start"`
	Base          int64      `db:"base" json:"base"`
	Study         int64      `db:"study" json:"study"`
	RoomBonus     int64      `db:"room_bonus" json:"room_bonus"`
	SportBonus    int64      `db:"sport_bonus" json:"sport_bonus"`
	DiaryPenalty  int64      `db:"diary_penalty" json:"diary_penalty"`
	ManualBonus   int64      `db:"manual_bonus" json:"manual_bonus"`
	ManualPenalty int64      `db:"manual_penalty" json:"manual_penalty"`
	Total         int64      `db:"total" json:"total"`
	Finalized     bool       `db:"finalized" json:"finalized"`
	FinalizedAt   *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
}

// DayInfo is the slice of a day record the weekly engine reads.
type DayInfo struct {
	Date         time.Time
	RoomOK       bool
	Grades       []int64
	SportMinutes int64
	DiaryMissed  bool
}

// WeekStats aggregates one week of day records for the breakdown.
type WeekStats struct {
	RoomDays    int64
	SportDays   int64
	DiaryMissed int64
	GradeCounts map[int64]int64
}

// All5 reports whether the week was graded and every grade was a 5.
func (s WeekStats) All5() bool {
	var total int64
	for grade, count := range s.GradeCounts {
		if grade != 5 && count > 0 {
			return false
		}
		total += count
	}
	return total > 0
}

// Breakdown is the itemized result of scoring one week.
type Breakdown struct {
	Base          int64 `json:"base"`
	Study         int64 `json:"study"`
	RoomBonus     int64 `json:"room_bonus"`
	SportBonus    int64 `json:"sport_bonus"`
	DiaryPenalty  int64 `json:"diary_penalty"`
	ManualBonus   int64 `json:"manual_bonus"`
	ManualPenalty int64 `json:"manual_penalty"`
	Total         int64 `json:"total"`
}
