package streak

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRoom       Type = "room"
	TypeStudy      Type = "study"
	TypeSport      Type = "sport"
	TypeStrongWeek Type = "strong_week"
)

// Streak is a derived row, recomputed from raw daily records rather than
// incremented blindly. best_count never decreases even when the window no
// longer contains the historical peak.
type Streak struct {
	ChildID      uuid.UUID `db:"child_id" json:"child_id"`
	StreakType   Type      `db:"streak_type" json:"streak_type"`
	CurrentCount int       `db:"current_count" json:"current_count"`
	BestCount    int       `db:"best_count" json:"best_count"`
	Active       bool      `db:"active" json:"active"`
	LastUpdated  time.Time `db:"last_updated" json:"last_updated"`
}

// DayFact is the per-day qualifying summary the tracker consumes. The daily
// activity domain supplies these through the DayProvider adapter.
type DayFact struct {
	Date    time.Time
	RoomOK  bool
	StudyOK bool
	SportOK bool
}
