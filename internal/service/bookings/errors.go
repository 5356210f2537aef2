package bookings

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"daybook/internal/domain"
)

// ErrMissingNickname marks a create attempt for an account whose identity
// provider returned no display name. Bookings are never created with a
// placeholder name.
var ErrMissingNickname = errors.New("account has no nickname")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// DuplicateBookingError rejects a request for a day the account already
// holds.
type DuplicateBookingError struct {
	Date domain.Day
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("booking already exists on %s", e.Date)
}

// CapacityExceededError rejects a request for a fully booked day.
type CapacityExceededError struct {
	Date         domain.Day
	CurrentCount int
	MaxCapacity  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("day %s is fully booked (%d/%d)", e.Date, e.CurrentCount, e.MaxCapacity)
}

// PastBookingDeletionError rejects cancellation of a booking whose day has
// already passed. Past reservations are immutable history.
type PastBookingDeletionError struct {
	BookingID uuid.UUID
	Date      domain.Day
}

func (e *PastBookingDeletionError) Error() string {
	return fmt.Sprintf("booking %s on %s is in the past and cannot be deleted", e.BookingID, e.Date)
}

// BookingNotFoundError covers both a missing booking and one owned by a
// different account; callers cannot tell the two apart.
type BookingNotFoundError struct {
	BookingID uuid.UUID
}

func (e *BookingNotFoundError) Error() string {
	return fmt.Sprintf("booking %s not found", e.BookingID)
}
