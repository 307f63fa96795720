package errors

import (
	"errors"
	"fmt"
)

// Typed failures returned by the inventory coordinator and the admin surface.
// Handlers map these onto HTTP statuses; anything else is a 500.
var (
	ErrLotNotFound        = errors.New("parking lot not found")
	ErrSpaceNotFound      = errors.New("parking space not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrSpaceUnavailable   = errors.New("parking space is unavailable")
	ErrInvalidTransition  = errors.New("invalid booking state transition")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrLotHasSpaces       = errors.New("parking lot still has spaces")
	ErrSpaceInUse         = errors.New("parking space is currently held by a booking")
)

// Validationf wraps ErrValidation with a detail message so callers can still
// match it with errors.Is.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
