package badge

import (
	"time"

	"github.com/google/uuid"
)

// Badge keys. Each is awarded at most once per child.
const (
	KeyTopGrades7    = "top_grades_7"
	KeyRoomStreak30  = "room_streak_30"
	KeySportStreak14 = "sport_streak_14"
	KeyStudyDays14   = "study_days_14"
	KeyFirstGoal     = "first_goal"
	KeyCleanWeek     = "clean_week"
)

type Badge struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ChildID   uuid.UUID `db:"child_id" json:"child_id"`
	BadgeKey  string    `db:"badge_key" json:"badge_key"`
	XPReward  int64     `db:"xp_reward" json:"xp_reward"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

// GradedDay is the slice of a day record the triggers care about.
type GradedDay struct {
	Date   time.Time
	Grades []int64
}

// FinalizedWeek is the slice of a finalized week record the triggers care about.
type FinalizedWeek struct {
	WeekStart     time.Time
	ManualPenalty int64
	Total         int64
}
