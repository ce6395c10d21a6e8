package badge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/settings"
)

const evalWindowDays = 30

// DaySource supplies graded days for a date range. The daily activity domain
// implements it; an adapter is wired in main.
type DaySource interface {
	GradedDays(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]GradedDay, error)
}

// StreakSource supplies streak counters by type key ("room", "sport", ...).
type StreakSource interface {
	Counts(ctx context.Context, childID uuid.UUID, streakType string) (current, best int64, err error)
}

// WeekSource supplies the most recently finalized week, nil when none exists.
type WeekSource interface {
	LatestFinalized(ctx context.Context, childID uuid.UUID) (*FinalizedWeek, error)
}

// WalletReader exposes the wallet the lifetime-earnings trigger reads.
type WalletReader interface {
	GetWallet(ctx context.Context, childID uuid.UUID) (*ledger.Wallet, error)
}

// LedgerApplier lets the XP credit settle inside the award transaction.
type LedgerApplier interface {
	ApplyTx(ctx context.Context, tx *sqlx.Tx, change ledger.Change, rates settings.Rates) (*ledger.AuditEntry, error)
}

type Service struct {
	repo     *Repository
	ledger   LedgerApplier
	wallets  WalletReader
	settings *settings.Service
	days     DaySource
	streaks  StreakSource
	weeks    WeekSource
}

func NewService(repo *Repository, ledgerApplier LedgerApplier, wallets WalletReader, settingsSvc *settings.Service, days DaySource, streaks StreakSource, weeks WeekSource) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledgerApplier,
		wallets:  wallets,
		settings: settingsSvc,
		days:     days,
		streaks:  streaks,
		weeks:    weeks,
	}
}

func (s *Service) ListByChild(ctx context.Context, childID uuid.UUID) ([]Badge, error) {
	return s.repo.ListByChild(ctx, childID)
}

// Evaluate runs every trigger the child has not earned yet and awards the ones
// that fire. Awarding is insert-or-nothing, so concurrent evaluations never
// double-pay the XP.
func (s *Service) Evaluate(ctx context.Context, childID uuid.UUID, date time.Time) ([]string, error) {
	date = truncateDay(date)

	have, err := s.repo.AwardedKeys(ctx, childID)
	if err != nil {
		return nil, err
	}

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	fired, err := s.firedKeys(ctx, childID, date, have, rates)
	if err != nil {
		return nil, err
	}

	awarded := make([]string, 0, len(fired))
	for _, key := range fired {
		ok, err := s.award(ctx, childID, key, rates)
		if err != nil {
			return nil, err
		}
		if ok {
			awarded = append(awarded, key)
		}
	}
	if len(awarded) > 0 {
		log.Info().
			Str("child_id", childID.String()).
			Strs("badges", awarded).
			Msg("badges awarded")
	}
	return awarded, nil
}

func (s *Service) firedKeys(ctx context.Context, childID uuid.UUID, date time.Time, have map[string]bool, rates settings.Rates) ([]string, error) {
	fired := make([]string, 0, 6)

	if !have[KeyTopGrades7] || !have[KeyStudyDays14] {
		from := date.AddDate(0, 0, -(evalWindowDays - 1))
		days, err := s.days.GradedDays(ctx, childID, from, date)
		if err != nil {
			return nil, err
		}
		if !have[KeyTopGrades7] && TopGrades7(days, date) {
			fired = append(fired, KeyTopGrades7)
		}
		if !have[KeyStudyDays14] && StudyDays14(days) {
			fired = append(fired, KeyStudyDays14)
		}
	}

	if !have[KeyRoomStreak30] {
		_, best, err := s.streaks.Counts(ctx, childID, "room")
		if err != nil {
			return nil, err
		}
		if RoomStreak30(best) {
			fired = append(fired, KeyRoomStreak30)
		}
	}
	if !have[KeySportStreak14] {
		_, best, err := s.streaks.Counts(ctx, childID, "sport")
		if err != nil {
			return nil, err
		}
		if SportStreak14(best) {
			fired = append(fired, KeySportStreak14)
		}
	}

	if !have[KeyFirstGoal] {
		wallet, err := s.wallets.GetWallet(ctx, childID)
		if err != nil {
			return nil, err
		}
		if FirstGoal(wallet.TotalEarnedCoins, rates.FirstGoalCoins) {
			fired = append(fired, KeyFirstGoal)
		}
	}

	if !have[KeyCleanWeek] {
		week, err := s.weeks.LatestFinalized(ctx, childID)
		if err != nil {
			return nil, err
		}
		if CleanWeek(week) {
			fired = append(fired, KeyCleanWeek)
		}
	}

	return fired, nil
}

func (s *Service) award(ctx context.Context, childID uuid.UUID, key string, rates settings.Rates) (bool, error) {
	b := Badge{
		ChildID:  childID,
		BadgeKey: key,
		XPReward: rates.BadgeXP,
	}
	return s.repo.Award(ctx, b, func(tx *sqlx.Tx) error {
		_, err := s.ledger.ApplyTx(ctx, tx, ledger.Change{
			ChildID:     childID,
			XPDelta:     rates.BadgeXP,
			Action:      ledger.ActionEarnCoins,
			ActionBy:    ledger.ActorSystem,
			Description: "badge earned: " + key,
			Metadata:    map[string]any{"badge_key": key},
		}, rates)
		return err
	})
}
