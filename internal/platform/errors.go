package platform

import "errors"

// Sentinel errors for the settlement and accrual engine. Services wrap these
// with fmt.Errorf("%w: ...") and handlers map them to HTTP codes with
// errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadySettled    = errors.New("already settled")
	ErrUpstream          = errors.New("upstream failure")
)
