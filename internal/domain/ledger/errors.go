package ledger

import "errors"

var (
	ErrInvalidChange     = errors.New("invalid balance change")
	ErrInvalidAction     = errors.New("unknown action type")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountFrozen     = errors.New("account frozen pending parent review")
	ErrStaleState        = errors.New("stale wallet state, retry")
	ErrInternal          = errors.New("internal ledger error")
)
