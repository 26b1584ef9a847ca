package loan

import "errors"

var (
	ErrUnknownStatus     = errors.New("unknown workflow status")
	ErrNoLoan            = errors.New("no loan application loaded")
	ErrInvalidTransition = errors.New("action not allowed in current status")
	ErrActionInFlight    = errors.New("another action is already in progress")
	ErrNotAdvanced       = errors.New("loan service did not advance the application")
)
