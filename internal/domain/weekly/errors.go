package weekly

import "errors"

var (
	ErrAlreadyFinalized = errors.New("week already finalized")
	ErrInvalidWeek      = errors.New("week start must be a Monday")
)
