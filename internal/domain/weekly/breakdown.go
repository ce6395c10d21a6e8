package weekly

import (
	"github.com/fambank/fambank-api/internal/domain/settings"
)

const (
	roomBonusFullDays    = 7
	roomBonusPartialDays = 5
	sportBonusDays       = 3
)

// StatsFromDays folds one week of day records into the aggregate the
// breakdown needs. A sport day qualifies at the configured minimum minutes.
func StatsFromDays(days []DayInfo, rates settings.Rates) WeekStats {
	stats := WeekStats{GradeCounts: make(map[int64]int64)}
	for _, d := range days {
		if d.RoomOK {
			stats.RoomDays++
		}
		if d.SportMinutes >= rates.SportMinMinutes {
			stats.SportDays++
		}
		if d.DiaryMissed {
			stats.DiaryMissed++
		}
		for _, g := range d.Grades {
			stats.GradeCounts[g]++
		}
	}
	return stats
}

// ComputeBreakdown scores one week. Pure; the caller decides what to do with
// the total.
func ComputeBreakdown(stats WeekStats, manualBonus, manualPenalty int64, rates settings.Rates) Breakdown {
	b := Breakdown{
		Base:          rates.WeekBaseCoins,
		ManualBonus:   manualBonus,
		ManualPenalty: manualPenalty,
	}

	if stats.All5() {
		b.Study = rates.BonusAll5
	} else {
		for grade, count := range stats.GradeCounts {
			b.Study += count * rates.GradeCoins[grade]
		}
	}

	switch {
	case stats.RoomDays >= roomBonusFullDays:
		b.RoomBonus = rates.RoomBonusFull
	case stats.RoomDays >= roomBonusPartialDays:
		b.RoomBonus = rates.RoomBonusPartial
	}

	if stats.SportDays >= sportBonusDays {
		b.SportBonus = rates.SportWeekBonus
	}

	b.DiaryPenalty = -stats.DiaryMissed * rates.DiaryPenaltyRate

	b.Total = b.Base + b.Study + b.RoomBonus + b.SportBonus + b.DiaryPenalty + b.ManualBonus + b.ManualPenalty
	return b
}
