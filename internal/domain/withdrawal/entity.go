package withdrawal

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// CashWithdrawal is a child's request to cash out earned money. No balance
// moves until a parent approves.
type CashWithdrawal struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ChildID     uuid.UUID  `db:"child_id" json:"child_id"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Status      Status     `db:"status" json:"status"`
	RequestedAt time.Time  `db:"requested_at" json:"requested_at"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
