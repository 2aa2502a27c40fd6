package commitment

import "errors"

var (
	ErrNotFound              = errors.New("commitment not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrAlreadyCompletedToday = errors.New("already completed today")
	ErrValidation            = errors.New("validation error")
)
