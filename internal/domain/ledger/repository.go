package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fambank/fambank-api/internal/domain/settings"
)

const queryTimeout = 3 * time.Second

// Repository owns the wallets table and the append-only audit_log. Every
// mutation locks the wallet row, writes the new state and exactly one audit
// entry in the same transaction.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureWallet(ctx context.Context, childID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (child_id)
		VALUES ($1)
		ON CONFLICT (child_id) DO NOTHING
	`, childID)
	return err
}

func (r *Repository) GetWallet(ctx context.Context, childID uuid.UUID) (*Wallet, error) {
	if err := r.EnsureWallet(ctx, childID); err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE child_id = $1`, childID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &w, nil
}

func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, childID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (child_id)
		VALUES ($1)
		ON CONFLICT (child_id) DO NOTHING
	`, childID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `SELECT * FROM wallets WHERE child_id = $1 FOR UPDATE`, childID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Apply runs one balance mutation in its own transaction.
func (r *Repository) Apply(ctx context.Context, change Change, rates settings.Rates) (*AuditEntry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", ErrInternal, err)
	}
	defer tx.Rollback()

	entry, err := r.ApplyTx(ctx2, tx, change, rates)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapTxError(err)
	}
	return entry, nil
}

// ApplyTx runs one balance mutation inside an externally managed transaction,
// so workflows can make two wallet moves atomic (transfer debit + credit).
// The caller commits or rolls back.
func (r *Repository) ApplyTx(ctx context.Context, tx *sqlx.Tx, change Change, rates settings.Rates) (*AuditEntry, error) {
	if !change.Action.Valid() {
		return nil, ErrInvalidAction
	}
	if !change.ActionBy.Valid() {
		return nil, ErrInvalidChange
	}

	w, err := r.lockWallet(ctx, tx, change.ChildID)
	if err != nil {
		return nil, fmt.Errorf("%w: lock wallet: %w", ErrInternal, err)
	}

	if w.Frozen {
		return nil, ErrAccountFrozen
	}

	// Client-submitted balances are never trusted for committing state; a
	// mismatch only flags the entry and escalates.
	suspicious := change.ExpectedCoinsBefore != nil && *change.ExpectedCoinsBefore != w.Coins

	newCoins := w.Coins + change.CoinsDelta
	newMoney := w.MoneyCents + change.MoneyDelta
	if (newCoins < 0 || newMoney < 0) && !change.AllowNegative {
		return nil, ErrInsufficientFunds
	}

	totals := *w
	applyTotals(&totals, change)

	var penalty int64
	requiresReview := false
	freeze := false
	if suspicious {
		prior, err := r.countSuspicious(ctx, tx, change.ChildID, rates.CheatWindowDays)
		if err != nil {
			return nil, err
		}
		switch prior + 1 {
		case 1:
			penalty = rates.CheatPenaltyFirst
		case 2:
			penalty = rates.CheatPenaltySecond
			requiresReview = true
		default:
			requiresReview = true
			freeze = true
		}
		// A penalty never pushes the balance below zero on its own.
		if penalty > newCoins {
			penalty = newCoins
		}
		if penalty < 0 {
			penalty = 0
		}
	}

	finalCoins := newCoins - penalty
	if penalty > 0 {
		totals.TotalSpentCoins += penalty
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET coins = $2,
		    money_cents = $3,
		    xp = xp + $4,
		    total_earned_coins = $5,
		    total_spent_coins = $6,
		    total_exchanged_coins = $7,
		    total_earned_money = $8,
		    total_spent_money = $9,
		    frozen = frozen OR $10,
		    updated_at = now()
		WHERE child_id = $1
	`, change.ChildID, finalCoins, newMoney, change.XPDelta,
		totals.TotalEarnedCoins, totals.TotalSpentCoins, totals.TotalExchangedCoins,
		totals.TotalEarnedMoney, totals.TotalSpentMoney, freeze)
	if err != nil {
		return nil, fmt.Errorf("%w: update wallet: %w", ErrInternal, err)
	}

	entry := &AuditEntry{
		ID:             uuid.New(),
		ChildID:        change.ChildID,
		ActionType:     change.Action,
		ActionBy:       change.ActionBy,
		CoinsChange:    change.CoinsDelta,
		MoneyChange:    change.MoneyDelta,
		XPChange:       change.XPDelta,
		CoinsBefore:    w.Coins,
		CoinsAfter:     newCoins,
		Description:    change.Description,
		IsSuspicious:   suspicious,
		RequiresReview: requiresReview,
		CreatedAt:      time.Now(),
	}
	if change.Metadata != nil {
		raw, err := json.Marshal(change.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal metadata: %w", ErrInternal, err)
		}
		entry.Metadata = raw
	}

	if err := r.insertAudit(ctx, tx, entry); err != nil {
		return nil, err
	}

	if penalty > 0 {
		penaltyEntry := &AuditEntry{
			ID:          uuid.New(),
			ChildID:     change.ChildID,
			ActionType:  ActionAttemptCheat,
			ActionBy:    ActorSystem,
			CoinsChange: -penalty,
			CoinsBefore: newCoins,
			CoinsAfter:  finalCoins,
			Description: "balance mismatch penalty",
			CreatedAt:   time.Now(),
		}
		if err := r.insertAudit(ctx, tx, penaltyEntry); err != nil {
			return nil, err
		}
	}

	return entry, nil
}

func applyTotals(w *Wallet, change Change) {
	switch {
	case change.CoinsDelta > 0:
		w.TotalEarnedCoins += change.CoinsDelta
	case change.CoinsDelta < 0 && change.Action == ActionExchange:
		w.TotalExchangedCoins += -change.CoinsDelta
	case change.CoinsDelta < 0:
		w.TotalSpentCoins += -change.CoinsDelta
	}

	switch {
	case change.MoneyDelta > 0:
		w.TotalEarnedMoney += change.MoneyDelta
	case change.MoneyDelta < 0:
		w.TotalSpentMoney += -change.MoneyDelta
	}
}

func (r *Repository) insertAudit(ctx context.Context, tx *sqlx.Tx, e *AuditEntry) error {
	var meta interface{}
	if len(e.Metadata) > 0 {
		meta = []byte(e.Metadata)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (
			id, child_id, action_type, action_by,
			coins_change, money_change, xp_change, coins_before, coins_after,
			description, metadata, is_suspicious, requires_review, parent_reviewed, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, $14)
	`, e.ID, e.ChildID, string(e.ActionType), string(e.ActionBy),
		e.CoinsChange, e.MoneyChange, e.XPChange, e.CoinsBefore, e.CoinsAfter,
		e.Description, meta, e.IsSuspicious, e.RequiresReview, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert audit entry: %w", ErrInternal, err)
	}
	return nil
}

func (r *Repository) countSuspicious(ctx context.Context, tx *sqlx.Tx, childID uuid.UUID, windowDays int64) (int, error) {
	if windowDays <= 0 {
		windowDays = 30
	}

	var n int
	err := tx.GetContext(ctx, &n, `
		SELECT COUNT(*)
		FROM audit_log
		WHERE child_id = $1
		  AND is_suspicious
		  AND NOT parent_reviewed
		  AND created_at >= now() - ($2 || ' days')::interval
	`, childID, windowDays)
	if err != nil {
		return 0, fmt.Errorf("%w: count suspicious entries: %w", ErrInternal, err)
	}
	return n, nil
}

// ListAudit returns the child's audit trail, newest first.
func (r *Repository) ListAudit(ctx context.Context, childID uuid.UUID, limit, offset int) ([]AuditEntry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	entries := make([]AuditEntry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT *
		FROM audit_log
		WHERE child_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, childID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit entries: %w", ErrInternal, err)
	}
	return entries, nil
}

// ReviewSuspicious marks all of the child's unreviewed suspicious entries as
// parent-reviewed and unfreezes the wallet. Returns the number of entries
// reviewed.
func (r *Repository) ReviewSuspicious(ctx context.Context, childID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx: %w", ErrInternal, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx2, `
		UPDATE audit_log
		SET parent_reviewed = true
		WHERE child_id = $1 AND is_suspicious AND NOT parent_reviewed
	`, childID)
	if err != nil {
		return 0, fmt.Errorf("%w: review entries: %w", ErrInternal, err)
	}
	reviewed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx2, `
		UPDATE wallets SET frozen = false, updated_at = now() WHERE child_id = $1
	`, childID); err != nil {
		return 0, fmt.Errorf("%w: unfreeze wallet: %w", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx: %w", ErrInternal, err)
	}
	return reviewed, nil
}

// EarnedBetween sums positive coin awards in [from, to).
func (r *Repository) EarnedBetween(ctx context.Context, childID uuid.UUID, from, to time.Time) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum sql.NullInt64
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(coins_change), 0)
		FROM audit_log
		WHERE child_id = $1
		  AND coins_change > 0
		  AND action_type = $2
		  AND created_at >= $3 AND created_at < $4
	`, childID, string(ActionEarnCoins), from, to)
	if err != nil {
		return 0, fmt.Errorf("%w: sum earned coins: %w", ErrInternal, err)
	}
	return sum.Int64, nil
}

// AuditBetween returns every audit entry created in [from, to), oldest first,
// across all children. Feeds the monthly archive export.
func (r *Repository) AuditBetween(ctx context.Context, from, to time.Time) ([]AuditEntry, error) {
	entries := make([]AuditEntry, 0)
	err := r.db.SelectContext(ctx, &entries, `
		SELECT *
		FROM audit_log
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit entries for period: %w", ErrInternal, err)
	}
	return entries, nil
}

// Serialization failures and deadlocks are both safe to retry.
func mapTxError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code == "40001" || pqErr.Code == "40P01") {
		return ErrStaleState
	}
	return fmt.Errorf("%w: commit tx: %w", ErrInternal, err)
}
