package transfer

import "errors"

var (
	ErrNotFound          = errors.New("transfer not found")
	ErrInvalidTransfer   = errors.New("invalid transfer")
	ErrLimitExceeded     = errors.New("transfer limit exceeded")
	ErrInvalidTransition = errors.New("invalid transfer state transition")
	ErrNotAuthorized     = errors.New("not authorized for this transfer")
)
