package badge

import "time"

const (
	topGradesDays   = 7
	roomStreakGoal  = 30
	sportStreakGoal = 14
	studyDaysGoal   = 14
)

// TopGrades7 fires when each of the 7 days ending at asOf carries at least one
// grade and every grade is a 5.
func TopGrades7(days []GradedDay, asOf time.Time) bool {
	byDate := make(map[time.Time][]int64, len(days))
	for _, d := range days {
		byDate[truncateDay(d.Date)] = d.Grades
	}

	day := truncateDay(asOf)
	for i := 0; i < topGradesDays; i++ {
		grades, ok := byDate[day]
		if !ok || len(grades) == 0 {
			return false
		}
		for _, g := range grades {
			if g != 5 {
				return false
			}
		}
		day = day.AddDate(0, 0, -1)
	}
	return true
}

// StudyDays14 fires on 14 distinct graded days in the supplied window.
func StudyDays14(days []GradedDay) bool {
	seen := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		if len(d.Grades) == 0 {
			continue
		}
		seen[truncateDay(d.Date)] = struct{}{}
	}
	return len(seen) >= studyDaysGoal
}

// RoomStreak30 and SportStreak14 judge the best streak, so a run that reached
// the goal still counts even if it broke before evaluation.
func RoomStreak30(bestRoomStreak int64) bool {
	return bestRoomStreak >= roomStreakGoal
}

func SportStreak14(bestSportStreak int64) bool {
	return bestSportStreak >= sportStreakGoal
}

// FirstGoal fires when lifetime earned coins reach the configured goal.
func FirstGoal(totalEarnedCoins, goalCoins int64) bool {
	return totalEarnedCoins >= goalCoins
}

// CleanWeek fires when the most recently finalized week carries no manual
// penalty.
func CleanWeek(week *FinalizedWeek) bool {
	return week != nil && week.ManualPenalty == 0
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
