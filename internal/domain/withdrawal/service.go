package withdrawal

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/settings"
)

// WalletReader checks the requested amount against the current money balance.
type WalletReader interface {
	GetWallet(ctx context.Context, childID uuid.UUID) (*ledger.Wallet, error)
}

// LedgerApplier debits the money inside the approval transaction.
type LedgerApplier interface {
	ApplyTx(ctx context.Context, tx *sqlx.Tx, change ledger.Change, rates settings.Rates) (*ledger.AuditEntry, error)
}

type Service struct {
	repo     *Repository
	ledger   LedgerApplier
	wallets  WalletReader
	settings *settings.Service
}

func NewService(repo *Repository, ledgerApplier LedgerApplier, wallets WalletReader, settingsSvc *settings.Service) *Service {
	return &Service{repo: repo, ledger: ledgerApplier, wallets: wallets, settings: settingsSvc}
}

// Request records a pending cash-out. The balance check here is advisory; the
// binding check happens at approval when the money actually moves.
func (s *Service) Request(ctx context.Context, childID uuid.UUID, amountCents int64) (*CashWithdrawal, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	w, err := s.wallets.GetWallet(ctx, childID)
	if err != nil {
		return nil, err
	}
	if amountCents > w.MoneyCents {
		return nil, ErrInvalidAmount
	}

	wd := &CashWithdrawal{
		ID:          uuid.New(),
		ChildID:     childID,
		AmountCents: amountCents,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, wd); err != nil {
		return nil, err
	}

	log.Info().
		Str("withdrawal_id", wd.ID.String()).
		Str("child_id", childID.String()).
		Int64("amount_cents", amountCents).
		Msg("withdrawal requested")
	return wd, nil
}

// Approve debits the money and closes the request in one transaction. If the
// balance dropped since the request, the debit fails and the request stays
// pending.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*CashWithdrawal, error) {
	rates, err := s.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}

	return s.repo.Resolve(ctx, id, StatusApproved, func(tx *sqlx.Tx, wd *CashWithdrawal) error {
		_, err := s.ledger.ApplyTx(ctx, tx, ledger.Change{
			ChildID:     wd.ChildID,
			MoneyDelta:  -wd.AmountCents,
			Action:      ledger.ActionSpendCoins,
			ActionBy:    ledger.ActorParent,
			Description: "cash withdrawal",
			Metadata:    map[string]interface{}{"withdrawal_id": wd.ID.String()},
		}, rates)
		return err
	})
}

// Reject closes the request without touching the wallet.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*CashWithdrawal, error) {
	return s.repo.Resolve(ctx, id, StatusRejected, nil)
}

func (s *Service) ListByChild(ctx context.Context, childID uuid.UUID) ([]CashWithdrawal, error) {
	return s.repo.ListByChild(ctx, childID)
}

func (s *Service) ListPending(ctx context.Context) ([]CashWithdrawal, error) {
	return s.repo.ListPending(ctx)
}
