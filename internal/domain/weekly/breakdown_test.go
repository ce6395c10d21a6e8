package weekly

import (
	"testing"
	"time"

	"github.com/fambank/fambank-api/internal/domain/settings"
)

func testRates() settings.Rates {
	return settings.Defaults()
}

func weekOf(days ...DayInfo) []DayInfo { return days }

func TestStatsFromDays(t *testing.T) {
	rates := testRates()
	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	days := weekOf(
		DayInfo{Date: monday, RoomOK: true, Grades: []int64{5, 4}, SportMinutes: 30},
		DayInfo{Date: monday.AddDate(0, 0, 1), RoomOK: true, SportMinutes: 10, DiaryMissed: true},
		DayInfo{Date: monday.AddDate(0, 0, 2), Grades: []int64{5}},
	)

	stats := StatsFromDays(days, rates)
	if stats.RoomDays != 2 {
		t.Errorf("RoomDays = %d, want 2", stats.RoomDays)
	}
	if stats.SportDays != 1 {
		t.Errorf("SportDays = %d, want 1 (10 minutes is below the minimum)", stats.SportDays)
	}
	if stats.DiaryMissed != 1 {
		t.Errorf("DiaryMissed = %d, want 1", stats.DiaryMissed)
	}
	if stats.GradeCounts[5] != 2 || stats.GradeCounts[4] != 1 {
		t.Errorf("GradeCounts = %v, want 5:2 4:1", stats.GradeCounts)
	}
}

func TestComputeBreakdownAll5Mode(t *testing.T) {
	rates := testRates()

	stats := WeekStats{
		RoomDays:    7,
		SportDays:   3,
		GradeCounts: map[int64]int64{5: 9},
	}
	b := ComputeBreakdown(stats, 0, 0, rates)

	if b.Study != rates.BonusAll5 {
		t.Errorf("Study = %d, want the flat all-5 bonus %d", b.Study, rates.BonusAll5)
	}
	if b.RoomBonus != rates.RoomBonusFull {
		t.Errorf("RoomBonus = %d, want full bonus at 7/7", b.RoomBonus)
	}
	if b.SportBonus != rates.SportWeekBonus {
		t.Errorf("SportBonus = %d, want flat bonus at 3 sport days", b.SportBonus)
	}
	want := rates.WeekBaseCoins + rates.BonusAll5 + rates.RoomBonusFull + rates.SportWeekBonus
	if b.Total != want {
		t.Errorf("Total = %d, want %d", b.Total, want)
	}
}

func TestComputeBreakdownPerGradeMode(t *testing.T) {
	rates := testRates()

	stats := WeekStats{
		RoomDays:    5,
		SportDays:   2,
		DiaryMissed: 2,
		GradeCounts: map[int64]int64{5: 3, 4: 2, 2: 1},
	}
	b := ComputeBreakdown(stats, 10, -5, rates)

	wantStudy := 3*rates.GradeCoins[5] + 2*rates.GradeCoins[4] + rates.GradeCoins[2]
	if b.Study != wantStudy {
		t.Errorf("Study = %d, want %d", b.Study, wantStudy)
	}
	if b.RoomBonus != rates.RoomBonusPartial {
		t.Errorf("RoomBonus = %d, want partial bonus at 5/7", b.RoomBonus)
	}
	if b.SportBonus != 0 {
		t.Errorf("SportBonus = %d, want 0 below 3 sport days", b.SportBonus)
	}
	wantPenalty := -2 * rates.DiaryPenaltyRate
	if b.DiaryPenalty != wantPenalty {
		t.Errorf("DiaryPenalty = %d, want %d", b.DiaryPenalty, wantPenalty)
	}
	want := rates.WeekBaseCoins + wantStudy + rates.RoomBonusPartial + wantPenalty + 10 - 5
	if b.Total != want {
		t.Errorf("Total = %d, want %d", b.Total, want)
	}
}

func TestComputeBreakdownRoomBonusThresholds(t *testing.T) {
	rates := testRates()

	cases := []struct {
		roomDays int64
		want     int64
	}{
		{7, rates.RoomBonusFull},
		{6, rates.RoomBonusPartial},
		{5, rates.RoomBonusPartial},
		{4, 0},
		{0, 0},
	}
	for _, tc := range cases {
		b := ComputeBreakdown(WeekStats{RoomDays: tc.roomDays}, 0, 0, rates)
		if b.RoomBonus != tc.want {
			t.Errorf("RoomBonus at %d days = %d, want %d", tc.roomDays, b.RoomBonus, tc.want)
		}
	}
}

func TestAll5RequiresGrades(t *testing.T) {
	if (WeekStats{GradeCounts: map[int64]int64{}}).All5() {
		t.Error("an ungraded week must not count as all-5")
	}
	if (WeekStats{GradeCounts: map[int64]int64{5: 2, 3: 1}}).All5() {
		t.Error("a week with a 3 must not count as all-5")
	}
	if !(WeekStats{GradeCounts: map[int64]int64{5: 1}}).All5() {
		t.Error("a week of only 5s must count as all-5")
	}
}

func TestNormalizeWeekStart(t *testing.T) {
	monday := time.Date(2026, 3, 16, 15, 4, 5, 0, time.UTC)
	got, err := normalizeWeekStart(monday)
	if err != nil {
		t.Fatalf("normalizeWeekStart(monday) error: %v", err)
	}
	if got.Hour() != 0 || got.Weekday() != time.Monday {
		t.Errorf("normalizeWeekStart = %v, want Monday midnight", got)
	}

	if _, err := normalizeWeekStart(monday.AddDate(0, 0, 1)); err != ErrInvalidWeek {
		t.Errorf("Tuesday week start: err = %v, want ErrInvalidWeek", err)
	}
}
