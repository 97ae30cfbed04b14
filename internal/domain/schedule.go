package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Weekday enumerates the days of the week, Sunday first. It is a closed set:
// every schedule lookup goes through the typed constant, never a string key.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (w Weekday) String() string {
	if w < Sunday || w > Saturday {
		return "invalid"
	}
	return weekdayNames[w]
}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// WeekdayOf maps a calendar date to its Weekday.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(date.Weekday())
}

// DayHours is the open interval for one weekday.
type DayHours struct {
	bun.BaseModel `bun:"table:business_hours"`

	Weekday   Weekday   `bun:"day_of_week,pk"`
	OpenTime  TimeOfDay `bun:"open_time,notnull"`
	CloseTime TimeOfDay `bun:"close_time,notnull"`
	Enabled   bool      `bun:"is_enabled,notnull"`
}

// WeeklyHours holds exactly one entry per weekday, indexed by Weekday.
type WeeklyHours [7]DayHours

func (h WeeklyHours) Day(w Weekday) DayHours {
	if !w.Valid() {
		return DayHours{Weekday: w}
	}
	return h[w]
}

// BookingConfig is the singleton business configuration. The engine re-reads
// it on every computation; it must never be cached across mutations.
type BookingConfig struct {
	bun.BaseModel `bun:"table:booking_config"`

	ID                int64     `bun:"id,pk"`
	BusinessName      string    `bun:"business_name,notnull"`
	BusinessEmail     string    `bun:"business_email,notnull"`
	BusinessPhone     string    `bun:"business_phone,notnull"`
	Timezone          string    `bun:"timezone,notnull"`
	BufferMinutes     int       `bun:"buffer_minutes,notnull"`
	MaxBookingsPerDay int       `bun:"max_bookings_per_day,notnull"`
	GoogleCalendarID  string    `bun:"google_calendar_id,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
	UpdatedAt         time.Time `bun:"updated_at,notnull"`
}

func (c *BookingConfig) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
