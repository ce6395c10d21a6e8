package transfer

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/settings"
	"github.com/fambank/fambank-api/internal/pkg/jwt"
)

// LedgerApplier lets both legs of a transfer settle in one transaction.
type LedgerApplier interface {
	ApplyTx(ctx context.Context, tx *sqlx.Tx, change ledger.Change, rates settings.Rates) (*ledger.AuditEntry, error)
}

type Service struct {
	repo     *Repository
	ledger   LedgerApplier
	settings *settings.Service
}

func NewService(repo *Repository, ledgerApplier LedgerApplier, settingsSvc *settings.Service) *Service {
	return &Service{repo: repo, ledger: ledgerApplier, settings: settingsSvc}
}

// CreateInput carries a transfer request. Loan terms and the deal description
// are only read for their respective types.
type CreateInput struct {
	FromChildID     uuid.UUID
	ToChildID       uuid.UUID
	Amount          int64
	Type            Type
	DealDescription string
	LoanInterest    int64
	LoanTermDays    int64
}

// Create validates the request against the configured caps and inserts the
// transfer. Gifts and payments at or below the approval threshold settle
// immediately; everything else starts pending. No coins move for pending
// transfers.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, actorRole string, in CreateInput) (*Transfer, error) {
	if actorRole != jwt.RoleParent && actorID != in.FromChildID {
		return nil, ErrNotAuthorized
	}
	if !in.Type.Valid() || in.FromChildID == uuid.Nil || in.ToChildID == uuid.Nil || in.FromChildID == in.ToChildID {
		return nil, ErrInvalidTransfer
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidTransfer
	}

	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	switch in.Type {
	case TypeDeal:
		if strings.TrimSpace(in.DealDescription) == "" {
			return nil, ErrInvalidTransfer
		}
	case TypeLoan:
		if in.LoanTermDays <= 0 || in.LoanTermDays > rates.MaxLoanTermDays || in.LoanInterest < 0 {
			return nil, ErrInvalidTransfer
		}
	}

	t := &Transfer{
		ID:           uuid.New(),
		FromChildID:  in.FromChildID,
		ToChildID:    in.ToChildID,
		Amount:       in.Amount,
		Type:         in.Type,
		Status:       StatusPending,
		LoanInterest: in.LoanInterest,
		LoanTermDays: in.LoanTermDays,
	}
	if in.Type == TypeDeal {
		desc := strings.TrimSpace(in.DealDescription)
		t.DealDescription = &desc
	}

	instant := (in.Type == TypeGift || in.Type == TypePayment) && in.Amount <= rates.TransferApproval
	var apply func(tx *sqlx.Tx) error
	if instant {
		t.Status = StatusCompleted
		apply = func(tx *sqlx.Tx) error {
			return s.moveCoins(ctx, tx, t, rates)
		}
	}

	guard := func(tx *sqlx.Tx) error {
		return s.checkCaps(ctx, tx, in.FromChildID, in.Amount, rates)
	}
	if err := s.repo.Create(ctx, t, guard, apply); err != nil {
		return nil, err
	}

	log.Info().
		Str("transfer_id", t.ID.String()).
		Str("type", string(t.Type)).
		Str("status", string(t.Status)).
		Int64("amount", t.Amount).
		Msg("transfer created")
	return t, nil
}

// Approve executes a pending gift, payment or loan. Parent-gated by the
// handler; the loan's clock starts at approval.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, func(tx *sqlx.Tx, t *Transfer) error {
		if t.Status != StatusPending || t.Type == TypeDeal {
			return ErrInvalidTransition
		}
		if t.Type == TypeLoan {
			due := time.Now().UTC().AddDate(0, 0, int(t.LoanTermDays))
			t.LoanDueDate = &due
		}
		if err := s.moveCoins(ctx, tx, t, rates); err != nil {
			return err
		}
		t.Status = StatusCompleted
		return s.repo.SetStatus(ctx, tx, t)
	})
}

// Reject closes a pending transfer without moving coins. The sender may
// withdraw their own request; parents may reject any.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) (*Transfer, error) {
	return s.repo.Update(ctx, id, func(tx *sqlx.Tx, t *Transfer) error {
		if actorRole != jwt.RoleParent && actorID != t.FromChildID {
			return ErrNotAuthorized
		}
		if t.Status != StatusPending {
			return ErrInvalidTransition
		}
		t.Status = StatusRejected
		return s.repo.SetStatus(ctx, tx, t)
	})
}

// MarkDone records that the deal's receiver did the work. Coins still do not
// move until the payer confirms.
func (s *Service) MarkDone(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Transfer, error) {
	return s.repo.Update(ctx, id, func(tx *sqlx.Tx, t *Transfer) error {
		if t.Type != TypeDeal {
			return ErrInvalidTransition
		}
		if actorID != t.ToChildID {
			return ErrNotAuthorized
		}
		if t.Status != StatusPending || t.MarkedDoneAt != nil {
			return ErrInvalidTransition
		}
		now := time.Now().UTC()
		t.MarkedDoneAt = &now
		return s.repo.SetStatus(ctx, tx, t)
	})
}

// Confirm is the payer's half of a deal: only after the receiver marked done
// does the payment execute.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Transfer, error) {
	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, func(tx *sqlx.Tx, t *Transfer) error {
		if t.Type != TypeDeal {
			return ErrInvalidTransition
		}
		if actorID != t.FromChildID {
			return ErrNotAuthorized
		}
		if t.Status != StatusPending || t.MarkedDoneAt == nil {
			return ErrInvalidTransition
		}
		if err := s.moveCoins(ctx, tx, t, rates); err != nil {
			return err
		}
		t.Status = StatusCompleted
		t.Confirmed = true
		return s.repo.SetStatus(ctx, tx, t)
	})
}

// Repay settles an approved loan: the borrower returns principal plus
// interest in one transaction.
func (s *Service) Repay(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Transfer, error) {
	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, func(tx *sqlx.Tx, t *Transfer) error {
		if t.Type != TypeLoan || t.Status != StatusCompleted {
			return ErrInvalidTransition
		}
		if actorID != t.ToChildID {
			return ErrNotAuthorized
		}

		owed := t.Amount + t.LoanInterest
		meta := map[string]interface{}{"transfer_id": t.ID.String(), "transfer_type": string(t.Type)}
		if err := s.applyOrdered(ctx, tx, ledger.Change{
			ChildID:     t.ToChildID,
			CoinsDelta:  -owed,
			Action:      ledger.ActionTransfer,
			ActionBy:    ledger.ActorChild,
			Description: "loan repayment",
			Metadata:    meta,
		}, ledger.Change{
			ChildID:     t.FromChildID,
			CoinsDelta:  owed,
			Action:      ledger.ActionTransfer,
			ActionBy:    ledger.ActorChild,
			Description: "loan repaid",
			Metadata:    meta,
		}, rates); err != nil {
			return err
		}
		t.Status = StatusRepaid
		return s.repo.SetStatus(ctx, tx, t)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByChild(ctx context.Context, childID uuid.UUID, limit, offset int) ([]Transfer, error) {
	return s.repo.ListByChild(ctx, childID, limit, offset)
}

func (s *Service) ListOverdueLoans(ctx context.Context, now time.Time) ([]Transfer, error) {
	return s.repo.ListOverdueLoans(ctx, now)
}

// checkCaps enforces the per-transfer, per-day and per-month limits. It runs
// inside the create transaction, behind the sender lock, so two concurrent
// creates cannot both pass a cap and jointly overshoot it.
func (s *Service) checkCaps(ctx context.Context, tx *sqlx.Tx, fromChildID uuid.UUID, amount int64, rates settings.Rates) error {
	if amount > rates.TransferMax {
		return ErrLimitExceeded
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daySum, err := s.repo.SentSince(ctx, tx, fromChildID, dayStart)
	if err != nil {
		return err
	}
	if daySum+amount > rates.TransferDayMax {
		return ErrLimitExceeded
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthSum, err := s.repo.SentSince(ctx, tx, fromChildID, monthStart)
	if err != nil {
		return err
	}
	if monthSum+amount > rates.TransferMonthMax {
		return ErrLimitExceeded
	}
	return nil
}

// moveCoins runs the two-leg move: debit sender, credit receiver. The debit
// leg enforces sufficient funds, so an overdrawn sender aborts both legs.
// Wallet rows lock in child id order, not leg order, so opposite-direction
// transfers cannot deadlock on each other.
func (s *Service) moveCoins(ctx context.Context, tx *sqlx.Tx, t *Transfer, rates settings.Rates) error {
	meta := map[string]interface{}{"transfer_id": t.ID.String(), "transfer_type": string(t.Type)}
	debit := ledger.Change{
		ChildID:     t.FromChildID,
		CoinsDelta:  -t.Amount,
		Action:      ledger.ActionTransfer,
		ActionBy:    ledger.ActorChild,
		Description: "transfer sent (" + string(t.Type) + ")",
		Metadata:    meta,
	}
	credit := ledger.Change{
		ChildID:     t.ToChildID,
		CoinsDelta:  t.Amount,
		Action:      ledger.ActionTransfer,
		ActionBy:    ledger.ActorChild,
		Description: "transfer received (" + string(t.Type) + ")",
		Metadata:    meta,
	}

	return s.applyOrdered(ctx, tx, debit, credit, rates)
}

// applyOrdered applies both legs with wallet rows locked in child id order.
func (s *Service) applyOrdered(ctx context.Context, tx *sqlx.Tx, a, b ledger.Change, rates settings.Rates) error {
	if bytes.Compare(b.ChildID[:], a.ChildID[:]) < 0 {
		a, b = b, a
	}
	if _, err := s.ledger.ApplyTx(ctx, tx, a, rates); err != nil {
		return err
	}
	_, err := s.ledger.ApplyTx(ctx, tx, b, rates)
	return err
}
