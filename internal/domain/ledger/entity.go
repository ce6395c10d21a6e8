package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionEarnCoins    ActionType = "earn_coins"
	ActionSpendCoins   ActionType = "spend_coins"
	ActionExchange     ActionType = "exchange"
	ActionTransfer     ActionType = "p2p_transfer"
	ActionAdminEdit    ActionType = "admin_edit"
	ActionAttemptCheat ActionType = "attempt_cheat"
)

// Valid reports whether the action is one of the closed set. Unknown variants
// are rejected at the boundary rather than stored.
func (a ActionType) Valid() bool {
	switch a {
	case ActionEarnCoins, ActionSpendCoins, ActionExchange, ActionTransfer, ActionAdminEdit, ActionAttemptCheat:
		return true
	}
	return false
}

type ActorType string

const (
	ActorSystem ActorType = "system"
	ActorParent ActorType = "parent"
	ActorChild  ActorType = "child"
)

func (a ActorType) Valid() bool {
	switch a {
	case ActorSystem, ActorParent, ActorChild:
		return true
	}
	return false
}

// Wallet is the per-child balance aggregate. Balances are only ever mutated
// through Apply; coins and money always equal the signed sum of the child's
// audit entries.
type Wallet struct {
	ChildID             uuid.UUID `db:"child_id" json:"child_id"`
	Coins               int64     `db:"coins" json:"coins"`
	MoneyCents          int64     `db:"money_cents" json:"money_cents"`
	XP                  int64     `db:"xp" json:"xp"`
	TotalEarnedCoins    int64     `db:"total_earned_coins" json:"total_earned_coins"`
	TotalSpentCoins     int64     `db:"total_spent_coins" json:"total_spent_coins"`
	TotalExchangedCoins int64     `db:"total_exchanged_coins" json:"total_exchanged_coins"`
	TotalEarnedMoney    int64     `db:"total_earned_money" json:"total_earned_money"`
	TotalSpentMoney     int64     `db:"total_spent_money" json:"total_spent_money"`
	Frozen              bool      `db:"frozen" json:"frozen"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Level derives the XP level: 1000 XP per level, starting at 1.
func (w *Wallet) Level() int64 {
	return w.XP/1000 + 1
}

// AuditEntry is an immutable append-only ledger row. Corrections are new
// compensating entries, never updates.
type AuditEntry struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ChildID        uuid.UUID       `db:"child_id" json:"child_id"`
	ActionType     ActionType      `db:"action_type" json:"action_type"`
	ActionBy       ActorType       `db:"action_by" json:"action_by"`
	CoinsChange    int64           `db:"coins_change" json:"coins_change"`
	MoneyChange    int64           `db:"money_change" json:"money_change"`
	XPChange       int64           `db:"xp_change" json:"xp_change"`
	CoinsBefore    int64           `db:"coins_before" json:"coins_before"`
	CoinsAfter     int64           `db:"coins_after" json:"coins_after"`
	Description    string          `db:"description" json:"description"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	IsSuspicious   bool            `db:"is_suspicious" json:"is_suspicious"`
	RequiresReview bool            `db:"requires_review" json:"requires_review"`
	ParentReviewed bool            `db:"parent_reviewed" json:"parent_reviewed"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Change describes one requested balance mutation.
type Change struct {
	ChildID     uuid.UUID
	CoinsDelta  int64
	MoneyDelta  int64
	XPDelta     int64
	Action      ActionType
	ActionBy    ActorType
	Description string
	Metadata    map[string]interface{}

	// ExpectedCoinsBefore is the client's view of the balance, used only to
	// detect tampering. The server value always wins.
	ExpectedCoinsBefore *int64

	// AllowNegative permits the resulting balance to go below zero, e.g. a
	// parent-authorized penalty larger than the current balance.
	AllowNegative bool
}
