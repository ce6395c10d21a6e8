package activity

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

// StreakRecomputer rebuilds streaks after a day save.
type StreakRecomputer interface {
	Recompute(ctx context.Context, childID uuid.UUID, asOf time.Time) error
}

// BadgeEvaluator runs the badge triggers after a day save and returns newly
// awarded badge keys.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, childID uuid.UUID, date time.Time) ([]string, error)
}

// LedgerApplier lets the award settle inside the day-save transaction.
type LedgerApplier interface {
	ApplyTx(ctx context.Context, tx *sqlx.Tx, change ledger.Change, rates settings.Rates) (*ledger.AuditEntry, error)
}

type Service struct {
	repo     *Repository
	ledger   LedgerApplier
	settings *settings.Service
	streaks  StreakRecomputer
	badges   BadgeEvaluator
}

func NewService(repo *Repository, ledgerApplier LedgerApplier, settingsSvc *settings.Service, streaks StreakRecomputer, badges BadgeEvaluator) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledgerApplier,
		settings: settingsSvc,
		streaks:  streaks,
		badges:   badges,
	}
}

// DayAward computes the coin value of one saved day from the rate table.
func DayAward(rec DayRecord, rates settings.Rates) int64 {
	var award int64
	for _, g := range rec.Grades {
		award += rates.GradeCoins[g]
	}
	if rec.RoomOK {
		award += rates.RoomDailyCoins
	}
	if rec.SportMinutes >= rates.SportMinMinutes {
		award += rates.SportDailyCoins
	}
	return award
}

// SaveDay persists a day record, settles the coin award difference and runs
// the streak and badge pipeline. Re-saving the same day awards only the
// delta, so the operation is idempotent.
func (s *Service) SaveDay(ctx context.Context, rec DayRecord) (*SaveResult, error) {
	rec.Date = truncateDay(rec.Date)

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	award := DayAward(rec, rates)
	delta, err := s.repo.SaveAndAward(ctx, rec, award, func(tx *sqlx.Tx, delta int64) error {
		change := ledger.Change{
			ChildID:     rec.ChildID,
			CoinsDelta:  delta,
			Action:      ledger.ActionEarnCoins,
			ActionBy:    ledger.ActorSystem,
			Description: fmt.Sprintf("daily activity %s", rec.Date.Format("2006-01-02")),
		}
		if delta < 0 {
			// A corrected day can claw back more than the child still holds.
			change.Action = ledger.ActionAdminEdit
			change.AllowNegative = true
			change.Description = fmt.Sprintf("daily activity correction %s", rec.Date.Format("2006-01-02"))
		}
		_, err := s.ledger.ApplyTx(ctx, tx, change, rates)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.streaks.Recompute(ctx, rec.ChildID, rec.Date); err != nil {
		return nil, err
	}

	awarded, err := s.badges.Evaluate(ctx, rec.ChildID, rec.Date)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("child_id", rec.ChildID.String()).
		Time("date", rec.Date).
		Int64("coins_delta", delta).
		Strs("badges", awarded).
		Msg("day saved")

	return &SaveResult{CoinsDelta: delta, AwardedBadges: awarded}, nil
}

// Range returns raw day records for a date range.
func (s *Service) Range(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]DayRecord, error) {
	return s.repo.Range(ctx, childID, truncateDay(from), truncateDay(to))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
