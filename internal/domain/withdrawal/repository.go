package withdrawal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, wd *CashWithdrawal) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO withdrawals (id, child_id, amount_cents, status, requested_at)
		VALUES ($1, $2, $3, $4, now())
	`, wd.ID, wd.ChildID, wd.AmountCents, wd.Status)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

// Resolve locks the pending withdrawal, flips it to the new status and runs
// apply (the money debit on approval) in the same transaction.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, status Status, apply func(tx *sqlx.Tx, wd *CashWithdrawal) error) (*CashWithdrawal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var wd CashWithdrawal
	err = tx.GetContext(ctx2, &wd, `
		SELECT id, child_id, amount_cents, status, requested_at, resolved_at
		FROM withdrawals
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock withdrawal: %w", err)
	}
	if wd.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	if apply != nil {
		if err := apply(tx, &wd); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx2, `
		UPDATE withdrawals SET status = $2, resolved_at = $3 WHERE id = $1
	`, id, status, now); err != nil {
		return nil, fmt.Errorf("update withdrawal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	wd.Status = status
	wd.ResolvedAt = &now
	return &wd, nil
}

func (r *Repository) ListByChild(ctx context.Context, childID uuid.UUID) ([]CashWithdrawal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	withdrawals := make([]CashWithdrawal, 0)
	err := r.db.SelectContext(ctx2, &withdrawals, `
		SELECT id, child_id, amount_cents, status, requested_at, resolved_at
		FROM withdrawals
		WHERE child_id = $1
		ORDER BY requested_at DESC
	`, childID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// ListPending returns all open requests, oldest first, for the parent queue.
func (r *Repository) ListPending(ctx context.Context) ([]CashWithdrawal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	withdrawals := make([]CashWithdrawal, 0)
	err := r.db.SelectContext(ctx2, &withdrawals, `
		SELECT id, child_id, amount_cents, status, requested_at, resolved_at
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY requested_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	return withdrawals, nil
}
