package booking

import "errors"

var (
	// ErrInvalidService: unknown or inactive service id.
	ErrInvalidService = errors.New("invalid service")
	// ErrDayClosed: the weekday is disabled in the weekly hours.
	ErrDayClosed = errors.New("day closed")
	// ErrSlotUnavailable: the requested interval conflicts with a confirmed
	// booking or an external busy interval, detected either pre-check or at
	// commit time.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrDailyCapReached: the date already holds the configured maximum of
	// confirmed bookings.
	ErrDailyCapReached = errors.New("daily booking cap reached")
)

type ValidationError struct {
	msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return NewValidationError(msg)
}
