package transfer

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

const transferColumns = `
	id, from_child_id, to_child_id, amount, type, status, deal_description,
	marked_done_at, confirmed, loan_interest, loan_term_days, loan_due_date,
	created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the transfer and, when apply is non-nil, runs it in the same
// transaction. guard runs first, behind a per-sender advisory lock, so cap
// checks see every concurrent create from the same child. Instant gifts and
// payments pass the two-leg ledger move as apply so the insert and both wallet
// updates commit together.
func (r *Repository) Create(ctx context.Context, t *Transfer, guard func(tx *sqlx.Tx) error, apply func(tx *sqlx.Tx) error) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// One create per sender at a time past the cap check.
	if _, err := tx.ExecContext(ctx2, `
		SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))
	`, t.FromChildID); err != nil {
		return fmt.Errorf("lock sender: %w", err)
	}
	if guard != nil {
		if err := guard(tx); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx2, `
		INSERT INTO transfers (id, from_child_id, to_child_id, amount, type, status,
		                       deal_description, confirmed, loan_interest, loan_term_days,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
	`, t.ID, t.FromChildID, t.ToChildID, t.Amount, t.Type, t.Status,
		t.DealDescription, t.Confirmed, t.LoanInterest, t.LoanTermDays); err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	if apply != nil {
		if err := apply(tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Update locks the transfer row, hands it to fn for validation and mutation
// and commits. fn writes its changes through the supplied transaction; any
// error rolls the whole transition back.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fn func(tx *sqlx.Tx, t *Transfer) error) (*Transfer, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var t Transfer
	err = tx.GetContext(ctx2, &t, `
		SELECT`+transferColumns+`
		FROM transfers
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock transfer: %w", err)
	}

	if err := fn(tx, &t); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &t, nil
}

// SetStatus updates status and bookkeeping fields inside an open transaction.
func (r *Repository) SetStatus(ctx context.Context, tx *sqlx.Tx, t *Transfer) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transfers
		SET status = $2, marked_done_at = $3, confirmed = $4, loan_due_date = $5, updated_at = now()
		WHERE id = $1
	`, t.ID, t.Status, t.MarkedDoneAt, t.Confirmed, t.LoanDueDate)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transfer
	err := r.db.GetContext(ctx2, &t, `
		SELECT`+transferColumns+`
		FROM transfers
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return &t, nil
}

func (r *Repository) ListByChild(ctx context.Context, childID uuid.UUID, limit, offset int) ([]Transfer, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	transfers := make([]Transfer, 0)
	err := r.db.SelectContext(ctx2, &transfers, `
		SELECT`+transferColumns+`
		FROM transfers
		WHERE from_child_id = $1 OR to_child_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, childID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return transfers, nil
}

// SentSince sums the sender's non-rejected transfer amounts created at or
// after the cutoff. Pending transfers count toward the caps so an approval
// backlog cannot be used to overshoot them. q is the create transaction when
// the sum feeds a cap check.
func (r *Repository) SentSince(ctx context.Context, q sqlx.QueryerContext, fromChildID uuid.UUID, since time.Time) (int64, error) {
	var sum int64
	err := sqlx.GetContext(ctx, q, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transfers
		WHERE from_child_id = $1 AND status != 'rejected' AND created_at >= $2
	`, fromChildID, since)
	if err != nil {
		return 0, fmt.Errorf("sum sent transfers: %w", err)
	}
	return sum, nil
}

// ListOverdueLoans returns approved loans past their due date.
func (r *Repository) ListOverdueLoans(ctx context.Context, now time.Time) ([]Transfer, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	transfers := make([]Transfer, 0)
	err := r.db.SelectContext(ctx2, &transfers, `
		SELECT`+transferColumns+`
		FROM transfers
		WHERE type = 'loan' AND status = 'completed' AND loan_due_date < $1
		ORDER BY loan_due_date
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	return transfers, nil
}
