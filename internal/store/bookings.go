package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sal186/rouze-booking-agent/internal/domain"
)

// ConflictCheck runs inside the admission transaction against committed
// state for the booking's date. Returning a non-nil error aborts the insert;
// the error is surfaced to the caller unchanged.
type ConflictCheck func(confirmed []domain.Booking, confirmedCount int) error

type BookingFilter struct {
	Date   *time.Time
	Status *domain.BookingStatus
}

type BookingRepository interface {
	// InsertIfAvailable inserts the booking as one atomic unit: it
	// serializes all writers for the booking's date, re-reads the confirmed
	// bookings, runs check against them, and only then inserts. A
	// constraint violation raised by a concurrent admission is returned as
	// ErrConflict.
	InsertIfAvailable(ctx context.Context, b domain.Booking, check ConflictCheck) (domain.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	ListConfirmed(ctx context.Context, date time.Time) ([]domain.Booking, error)
	CountConfirmed(ctx context.Context, date time.Time) (int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (int64, error)
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
}
