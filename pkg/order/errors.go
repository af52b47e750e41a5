package order

import "errors"

// Validation errors returned by the builder. Callers discriminate with
// errors.Is; the wrapped message carries the offending input.
var (
	ErrInvalidAddress = errors.New("invalid recipient address")
	ErrInvalidAmount  = errors.New("invalid transfer amount")
	ErrInvalidDelay   = errors.New("invalid execution delay")
)
