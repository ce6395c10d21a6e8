package potential

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fambank/fambank-api/internal/domain/settings"
)

// Report shows what a month could have paid against what it did. Read-only;
// nothing here ever writes.
type Report struct {
	Month          string `json:"month"`
	Weeks          int64  `json:"weeks"`
	BasePotential  int64  `json:"base_potential"`
	MaxWithBonuses int64  `json:"max_with_bonuses"`
	EarnedCoins    int64  `json:"earned_coins"`
	Gap            int64  `json:"gap"`
}

// EarnedProvider sums coins actually earned in a period. The ledger
// implements it.
type EarnedProvider interface {
	EarnedBetween(ctx context.Context, childID uuid.UUID, from, to time.Time) (int64, error)
}

type Service struct {
	earned   EarnedProvider
	settings *settings.Service
}

func NewService(earned EarnedProvider, settingsSvc *settings.Service) *Service {
	return &Service{earned: earned, settings: settingsSvc}
}

// Compute builds the potential report for one calendar month.
func (s *Service) Compute(ctx context.Context, childID uuid.UUID, year int, month time.Month) (*Report, error) {
	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	earned, err := s.earned.EarnedBetween(ctx, childID, from, to)
	if err != nil {
		return nil, err
	}

	r := ComputeReport(WeeksInMonth(year, month), earned, rates)
	r.Month = from.Format("2006-01")
	return &r, nil
}

// ComputeReport scores the month's ceiling from the rate table. Manual
// bonuses can push earnings past the ceiling; the gap never goes negative.
func ComputeReport(weeks, earned int64, rates settings.Rates) Report {
	base := weeks * (rates.WeekBaseCoins + rates.BonusAll5)
	max := base + weeks*(rates.RoomBonusFull+rates.SportWeekBonus)
	gap := max - earned
	if gap < 0 {
		gap = 0
	}
	return Report{
		Weeks:          weeks,
		BasePotential:  base,
		MaxWithBonuses: max,
		EarnedCoins:    earned,
		Gap:            gap,
	}
}

// WeeksInMonth counts the settlement weeks of a month: the Mondays it
// contains.
func WeeksInMonth(year int, month time.Month) int64 {
	var weeks int64
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Monday {
			weeks++
		}
	}
	return weeks
}
