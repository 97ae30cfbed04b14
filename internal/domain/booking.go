package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed (or later cancelled) appointment. DurationMinutes is
// a snapshot of the service duration at admission time; editing the catalog
// never changes existing bookings. The only legal transition is
// confirmed -> cancelled.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID              uuid.UUID     `bun:"id,pk,type:uuid"`
	ServiceID       string        `bun:"service_id,notnull"`
	Date            time.Time     `bun:"booking_date,notnull"`
	StartTime       TimeOfDay     `bun:"start_time,notnull"`
	DurationMinutes int           `bun:"duration_minutes,notnull"`
	CustomerName    string        `bun:"customer_name,notnull"`
	CustomerEmail   string        `bun:"customer_email,notnull"`
	CustomerPhone   string        `bun:"customer_phone,notnull"`
	Notes           string        `bun:"notes,notnull"`
	Status          BookingStatus `bun:"status,notnull"`
	CalendarEventID string        `bun:"calendar_event_id,notnull"`
	CreatedAt       time.Time     `bun:"created_at,notnull"`
	UpdatedAt       time.Time     `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

// Occupied is the interval the booking blocks for others: its own span plus
// the trailing buffer. Buffer attaches to the existing booking's end, so a
// candidate may sit flush against a buffer boundary but never inside it.
func (b *Booking) Occupied(bufferMinutes int) Interval {
	return Interval{Start: b.StartTime, End: b.StartTime.Add(b.DurationMinutes + bufferMinutes)}
}
