package potential

import (
	"testing"
	"time"

	"github.com/fambank/fambank-api/internal/domain/settings"
)

func TestWeeksInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int64
	}{
		{2026, time.March, 5},    // Mondays: 2, 9, 16, 23, 30
		{2026, time.February, 4}, // Mondays: 2, 9, 16, 23
		{2026, time.June, 5},     // Mondays: 1, 8, 15, 22, 29
	}
	for _, tc := range cases {
		if got := WeeksInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("WeeksInMonth(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestComputeReport(t *testing.T) {
	rates := settings.Defaults()

	r := ComputeReport(4, 300, rates)

	wantBase := 4 * (rates.WeekBaseCoins + rates.BonusAll5)
	if r.BasePotential != wantBase {
		t.Errorf("BasePotential = %d, want %d", r.BasePotential, wantBase)
	}
	wantMax := wantBase + 4*(rates.RoomBonusFull+rates.SportWeekBonus)
	if r.MaxWithBonuses != wantMax {
		t.Errorf("MaxWithBonuses = %d, want %d", r.MaxWithBonuses, wantMax)
	}
	if r.Gap != wantMax-300 {
		t.Errorf("Gap = %d, want %d", r.Gap, wantMax-300)
	}
}

func TestComputeReportGapNeverNegative(t *testing.T) {
	rates := settings.Defaults()

	// Manual bonuses can push earnings past the monthly ceiling.
	r := ComputeReport(4, 1_000_000, rates)
	if r.Gap != 0 {
		t.Errorf("Gap = %d, want 0 when earnings exceed the ceiling", r.Gap)
	}
}
