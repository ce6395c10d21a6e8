package weekly

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/settings"
)

const strongWeekWindow = 12

// DaySource supplies the week's day records. The daily activity domain
// implements it; an adapter is wired in main.
type DaySource interface {
	Days(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]DayInfo, error)
}

// LedgerApplier lets the week award settle inside the finalize transaction.
type LedgerApplier interface {
	ApplyTx(ctx context.Context, tx *sqlx.Tx, change ledger.Change, rates settings.Rates) (*ledger.AuditEntry, error)
}

// StrongWeekUpdater recomputes the strong-week streak from finalized weeks.
type StrongWeekUpdater interface {
	UpdateStrongWeek(ctx context.Context, childID uuid.UUID, strongWeeks []bool) error
}

type Service struct {
	repo     *Repository
	ledger   LedgerApplier
	settings *settings.Service
	days     DaySource
	streaks  StrongWeekUpdater
}

func NewService(repo *Repository, ledgerApplier LedgerApplier, settingsSvc *settings.Service, days DaySource, streaks StrongWeekUpdater) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledgerApplier,
		settings: settingsSvc,
		days:     days,
		streaks:  streaks,
	}
}

func (s *Service) Get(ctx context.Context, childID uuid.UUID, weekStart time.Time) (*WeekRecord, error) {
	weekStart, err := normalizeWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, childID, weekStart)
}

// LatestFinalized returns the most recently finalized week, nil when none.
func (s *Service) LatestFinalized(ctx context.Context, childID uuid.UUID) (*WeekRecord, error) {
	records, err := s.repo.ListFinalized(ctx, childID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Preview scores the week without touching any state.
func (s *Service) Preview(ctx context.Context, childID uuid.UUID, weekStart time.Time, manualBonus, manualPenalty int64) (*Breakdown, error) {
	weekStart, err := normalizeWeekStart(weekStart)
	if err != nil {
		return nil, err
	}

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	days, err := s.days.Days(ctx, childID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}

	b := ComputeBreakdown(StatsFromDays(days, rates), manualBonus, manualPenalty, rates)
	return &b, nil
}

// Finalize settles the week: scores it, pays the total through the ledger and
// marks the record finalized, all in one transaction. A second finalize of the
// same week returns ErrAlreadyFinalized and moves nothing.
func (s *Service) Finalize(ctx context.Context, childID uuid.UUID, weekStart time.Time, manualBonus, manualPenalty int64) (*Breakdown, error) {
	weekStart, err := normalizeWeekStart(weekStart)
	if err != nil {
		return nil, err
	}

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	days, err := s.days.Days(ctx, childID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	b := ComputeBreakdown(StatsFromDays(days, rates), manualBonus, manualPenalty, rates)

	rec := WeekRecord{
		ChildID:       childID,
		WeekStart:     weekStart,
		Base:          b.Base,
		Study:         b.Study,
		RoomBonus:     b.RoomBonus,
		SportBonus:    b.SportBonus,
		DiaryPenalty:  b.DiaryPenalty,
		ManualBonus:   b.ManualBonus,
		ManualPenalty: b.ManualPenalty,
		Total:         b.Total,
	}

	err = s.repo.Finalize(ctx, rec, func(tx *sqlx.Tx) error {
		change := ledger.Change{
			ChildID:     childID,
			CoinsDelta:  b.Total,
			Action:      ledger.ActionEarnCoins,
			ActionBy:    ledger.ActorParent,
			Description: fmt.Sprintf("weekly settlement %s", weekStart.Format("2006-01-02")),
			Metadata: map[string]any{
				"week_start": weekStart.Format("2006-01-02"),
				"study":      b.Study,
				"room":       b.RoomBonus,
				"sport":      b.SportBonus,
				"diary":      b.DiaryPenalty,
			},
		}
		if b.Total < 0 {
			// A heavily penalized week can owe more than the child holds.
			change.Action = ledger.ActionAdminEdit
			change.AllowNegative = true
		}
		_, err := s.ledger.ApplyTx(ctx, tx, change, rates)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.updateStrongWeek(ctx, childID, rates); err != nil {
		return nil, err
	}

	log.Info().
		Str("child_id", childID.String()).
		Time("week_start", weekStart).
		Int64("total", b.Total).
		Msg("week finalized")
	return &b, nil
}

func (s *Service) updateStrongWeek(ctx context.Context, childID uuid.UUID, rates settings.Rates) error {
	weeks, err := s.repo.ListFinalized(ctx, childID, strongWeekWindow)
	if err != nil {
		return err
	}
	strong := make([]bool, 0, len(weeks))
	for _, w := range weeks {
		strong = append(strong, w.Total >= rates.StrongWeekCoins)
	}
	return s.streaks.UpdateStrongWeek(ctx, childID, strong)
}

func normalizeWeekStart(t time.Time) (time.Time, error) {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.Weekday() != time.Monday {
		return time.Time{}, ErrInvalidWeek
	}
	return t, nil
}
