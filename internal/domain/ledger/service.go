package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fambank/fambank-api/internal/domain/settings"
)

// EventPublisher fans balance changes out to connected clients. The ledger
// does not know about presentation; the hub adapter is wired in main.
type EventPublisher interface {
	PublishBalanceChange(ctx context.Context, entry *AuditEntry)
}

type Service struct {
	repo     *Repository
	settings *settings.Service
	events   EventPublisher
}

func NewService(repo *Repository, settingsSvc *settings.Service, events EventPublisher) *Service {
	return &Service{repo: repo, settings: settingsSvc, events: events}
}

func (s *Service) GetWallet(ctx context.Context, childID uuid.UUID) (*Wallet, error) {
	return s.repo.GetWallet(ctx, childID)
}

func (s *Service) ListAudit(ctx context.Context, childID uuid.UUID, limit, offset int) ([]AuditEntry, error) {
	return s.repo.ListAudit(ctx, childID, limit, offset)
}

// Apply is the single entry point for balance mutation.
func (s *Service) Apply(ctx context.Context, change Change) (*AuditEntry, error) {
	if change.ChildID == uuid.Nil {
		return nil, ErrInvalidChange
	}
	if change.CoinsDelta == 0 && change.MoneyDelta == 0 && change.XPDelta == 0 {
		return nil, ErrInvalidChange
	}
	if strings.TrimSpace(change.Description) == "" {
		change.Description = "balance adjustment"
	}

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.Apply(ctx, change, rates)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("child_id", change.ChildID.String()).
		Str("action", string(change.Action)).
		Str("action_by", string(change.ActionBy)).
		Int64("coins_delta", change.CoinsDelta).
		Int64("money_delta", change.MoneyDelta).
		Bool("suspicious", entry.IsSuspicious).
		Msg("ledger change applied")

	if s.events != nil {
		s.events.PublishBalanceChange(ctx, entry)
	}
	return entry, nil
}

// Exchange converts coins to money at the tiered rate for the current
// balance. The rate quote and the balance check both happen against server
// state; expectedBefore only feeds the anti-cheat flag.
func (s *Service) Exchange(ctx context.Context, childID uuid.UUID, coins int64, actionBy ActorType, expectedBefore *int64) (*AuditEntry, error) {
	if coins <= 0 {
		return nil, ErrInvalidChange
	}

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	w, err := s.repo.GetWallet(ctx, childID)
	if err != nil {
		return nil, err
	}
	if coins > w.Coins {
		return nil, ErrInsufficientFunds
	}

	moneyCents, bonusPct := Quote(coins, w.Coins, rates)

	return s.Apply(ctx, Change{
		ChildID:     childID,
		CoinsDelta:  -coins,
		MoneyDelta:  moneyCents,
		Action:      ActionExchange,
		ActionBy:    actionBy,
		Description: "coin exchange",
		Metadata: map[string]interface{}{
			"rate_cents":    rates.ExchangeBaseCents,
			"bonus_percent": bonusPct,
		},
		ExpectedCoinsBefore: expectedBefore,
	})
}

// ManualAdjust is the parent edit path. Negative adjustments below zero are
// permitted because the parent explicitly authorizes them.
func (s *Service) ManualAdjust(ctx context.Context, childID uuid.UUID, coinsDelta, moneyDelta int64, description string) (*AuditEntry, error) {
	return s.Apply(ctx, Change{
		ChildID:       childID,
		CoinsDelta:    coinsDelta,
		MoneyDelta:    moneyDelta,
		Action:        ActionAdminEdit,
		ActionBy:      ActorParent,
		Description:   description,
		AllowNegative: true,
	})
}

// Review clears the child's suspicious entries and unfreezes the wallet.
func (s *Service) Review(ctx context.Context, childID uuid.UUID) (int64, error) {
	reviewed, err := s.repo.ReviewSuspicious(ctx, childID)
	if err != nil {
		return 0, err
	}
	log.Info().
		Str("child_id", childID.String()).
		Int64("entries", reviewed).
		Msg("suspicious entries reviewed")
	return reviewed, nil
}

// EarnedBetween sums coins earned in [from, to).
func (s *Service) EarnedBetween(ctx context.Context, childID uuid.UUID, from, to time.Time) (int64, error) {
	return s.repo.EarnedBetween(ctx, childID, from, to)
}

// AuditBetween returns all audit entries created in [from, to).
func (s *Service) AuditBetween(ctx context.Context, from, to time.Time) ([]AuditEntry, error) {
	return s.repo.AuditBetween(ctx, from, to)
}
