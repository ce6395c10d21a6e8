package badge

import (
	"testing"
	"time"
)

func day(offset int) time.Time {
	base := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func perfectWeek(asOf time.Time) []GradedDay {
	days := make([]GradedDay, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, GradedDay{Date: asOf.AddDate(0, 0, -i), Grades: []int64{5, 5}})
	}
	return days
}

func TestTopGrades7(t *testing.T) {
	asOf := day(0)

	if !TopGrades7(perfectWeek(asOf), asOf) {
		t.Error("expected 7 perfect days to fire")
	}

	withFour := perfectWeek(asOf)
	withFour[3].Grades = []int64{5, 4}
	if TopGrades7(withFour, asOf) {
		t.Error("a single 4 in the window must not fire")
	}

	gap := perfectWeek(asOf)
	gap[5].Grades = nil
	if TopGrades7(gap, asOf) {
		t.Error("an ungraded day breaks the run")
	}

	if TopGrades7(perfectWeek(asOf.AddDate(0, 0, -1)), asOf) {
		t.Error("run must end on the evaluation day")
	}
}

func TestStudyDays14(t *testing.T) {
	days := make([]GradedDay, 0, 20)
	for i := 0; i < 13; i++ {
		days = append(days, GradedDay{Date: day(-i), Grades: []int64{4}})
	}
	days = append(days, GradedDay{Date: day(-20)}) // ungraded, must not count
	if StudyDays14(days) {
		t.Error("13 graded days must not fire")
	}

	days = append(days, GradedDay{Date: day(-21), Grades: []int64{3}})
	if !StudyDays14(days) {
		t.Error("14 graded days must fire")
	}
}

func TestStreakTriggers(t *testing.T) {
	if RoomStreak30(29) || !RoomStreak30(30) {
		t.Error("room streak threshold is 30")
	}
	if SportStreak14(13) || !SportStreak14(14) {
		t.Error("sport streak threshold is 14")
	}
}

func TestFirstGoal(t *testing.T) {
	if FirstGoal(999, 1000) {
		t.Error("999/1000 must not fire")
	}
	if !FirstGoal(1000, 1000) {
		t.Error("1000/1000 must fire")
	}
}

func TestCleanWeek(t *testing.T) {
	if CleanWeek(nil) {
		t.Error("no finalized week must not fire")
	}
	if CleanWeek(&FinalizedWeek{ManualPenalty: -10}) {
		t.Error("a penalized week must not fire")
	}
	if !CleanWeek(&FinalizedWeek{ManualPenalty: 0, Total: 120}) {
		t.Error("a clean finalized week must fire")
	}
}
