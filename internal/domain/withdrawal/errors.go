package withdrawal

import "errors"

var (
	ErrNotFound          = errors.New("withdrawal not found")
	ErrInvalidAmount     = errors.New("invalid withdrawal amount")
	ErrInvalidTransition = errors.New("withdrawal is not pending")
)
