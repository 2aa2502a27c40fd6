package checkin

import "errors"

var (
	ErrNotFound   = errors.New("check-in not found")
	ErrValidation = errors.New("validation error")
)
