package errs

import (
	"errors"
)

// Expected, recoverable outcomes of the rental lifecycle. Handlers map
// these to HTTP statuses; anything else is treated as internal.
var (
	ErrNotFound = errors.New("not found")

	ErrInvalidInterval    = errors.New("start must be before end")
	ErrVehicleUnavailable = errors.New("vehicle unavailable for the requested interval")
	ErrInvalidTransition  = errors.New("invalid reservation status transition")

	ErrReservationNotConfirmed = errors.New("reservation is not confirmed")
	ErrTokenInvalid            = errors.New("access token invalid")
	ErrTokenExpired            = errors.New("access token expired")
	ErrTokenAlreadyUsed        = errors.New("access token already used")

	ErrPickupNotAllowed      = errors.New("pickup not allowed")
	ErrReturnNotAllowed      = errors.New("return not allowed")
	ErrReturnAlreadyRecorded = errors.New("return already recorded")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
)
