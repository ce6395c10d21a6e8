package transfer

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeGift    Type = "gift"
	TypePayment Type = "payment"
	TypeLoan    Type = "loan"
	TypeDeal    Type = "deal"
)

func (t Type) Valid() bool {
	switch t {
	case TypeGift, TypePayment, TypeLoan, TypeDeal:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusRepaid    Status = "repaid"
)

// Transfer is one coin movement between two children. Gifts and payments
// settle immediately below the approval threshold; loans and deals go through
// their own lifecycles before coins move.
type Transfer struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	FromChildID     uuid.UUID  `db:"from_child_id" json:"from_child_id"`
	ToChildID       uuid.UUID  `db:"to_child_id" json:"to_child_id"`
	Amount          int64      `db:"amount" json:"amount"`
	Type            Type       `db:"type" json:"type"`
	Status          Status     `db:"status" json:"status"`
	DealDescription *string    `db:"deal_description" json:"deal_description,omitempty"`
	MarkedDoneAt    *time.Time `db:"marked_done_at" json:"marked_done_at,omitempty"`
	Confirmed       bool       `db:"confirmed" json:"confirmed"`
	LoanInterest    int64      `db:"loan_interest" json:"loan_interest"`
	LoanTermDays    int64      `db:"loan_term_days" json:"loan_term_days"`
	LoanDueDate     *time.Time `db:"loan_due_date" json:"loan_due_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Overdue reports whether the transfer is an approved loan past its due date.
func (t *Transfer) Overdue(now time.Time) bool {
	return t.Type == TypeLoan && t.Status == StatusCompleted && t.LoanDueDate != nil && now.After(*t.LoanDueDate)
}
