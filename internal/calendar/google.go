// Package calendar mirrors bookings to an external Google Calendar and
// reads its busy intervals back into availability. Everything here is
// best-effort: the booking store stays the source of truth, and a failed or
// slow calendar call never blocks or fails a booking.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/sal186/rouze-booking-agent/internal/domain"
)

const minutesPerDay = 24 * 60

type Config struct {
	ClientEmail string
	PrivateKey  string
}

type Google struct {
	svc *gcal.Service
	log *slog.Logger
}

// NewGoogle builds a service-account client. Which calendar to talk to comes
// from the booking config at call time, so an admin can repoint it without a
// restart.
func NewGoogle(ctx context.Context, cfg Config, log *slog.Logger) (*Google, error) {
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("calendar: client email and private key are required")
	}
	if log == nil {
		log = slog.Default()
	}

	jwtCfg := &jwt.Config{
		Email: cfg.ClientEmail,
		// Env vars carry the key with escaped newlines.
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{gcal.CalendarScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("calendar: new service: %w", err)
	}
	return &Google{svc: svc, log: log.With(slog.String("component", "calendar"))}, nil
}

// BusyIntervals queries freebusy for the date in the business timezone. An
// unset calendar id means the feature is off and yields an empty overlay.
func (g *Google) BusyIntervals(ctx context.Context, cfg domain.BookingConfig, date time.Time) ([]domain.Interval, error) {
	if cfg.GoogleCalendarID == "" {
		return nil, nil
	}

	loc := cfg.Location()
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: dayStart.Format(time.RFC3339),
		TimeMax: dayEnd.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: cfg.GoogleCalendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[cfg.GoogleCalendarID]
	if !ok {
		return nil, nil
	}
	return busyToIntervals(cal.Busy, dayStart, loc), nil
}

// busyToIntervals converts freebusy periods into minute intervals within the
// day, clamped to [00:00, 24:00). Periods that do not touch the day, or that
// fail to parse, are dropped.
func busyToIntervals(periods []*gcal.TimePeriod, dayStart time.Time, loc *time.Location) []domain.Interval {
	dayEnd := dayStart.Add(24 * time.Hour)

	var out []domain.Interval
	for _, p := range periods {
		if p == nil {
			continue
		}
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			continue
		}
		if !start.Before(dayEnd) || !end.After(dayStart) {
			continue
		}
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}

		iv := domain.Interval{
			Start: domain.TimeOfDay(start.In(loc).Hour()*60 + start.In(loc).Minute()),
			End:   domain.TimeOfDay(end.In(loc).Hour()*60 + end.In(loc).Minute()),
		}
		if end.Equal(dayEnd) {
			iv.End = minutesPerDay
		}
		if iv.Start < iv.End {
			out = append(out, iv)
		}
	}
	return out
}

// MirrorCreate inserts an event for the booking and returns its id.
func (g *Google) MirrorCreate(ctx context.Context, cfg domain.BookingConfig, b domain.Booking, svc domain.Service) (string, error) {
	if cfg.GoogleCalendarID == "" {
		return "", nil
	}

	loc := cfg.Location()
	startAt := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), int(b.StartTime)/60, int(b.StartTime)%60, 0, 0, loc)
	endAt := startAt.Add(time.Duration(b.DurationMinutes) * time.Minute)

	event := &gcal.Event{
		Summary:     svc.Name + " - " + b.CustomerName,
		Description: eventDescription(b),
		Start:       &gcal.EventDateTime{DateTime: startAt.Format(time.RFC3339), TimeZone: cfg.Timezone},
		End:         &gcal.EventDateTime{DateTime: endAt.Format(time.RFC3339), TimeZone: cfg.Timezone},
		Attendees:   []*gcal.EventAttendee{{Email: b.CustomerEmail}},
	}

	created, err := g.svc.Events.Insert(cfg.GoogleCalendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: event insert: %w", err)
	}
	g.log.Info("calendar event created", slog.String("event_id", created.Id), slog.String("booking_id", b.ID.String()))
	return created.Id, nil
}

// MirrorCancel deletes the mirrored event, if one was ever recorded.
func (g *Google) MirrorCancel(ctx context.Context, cfg domain.BookingConfig, b domain.Booking) error {
	if cfg.GoogleCalendarID == "" || b.CalendarEventID == "" {
		return nil
	}
	if err := g.svc.Events.Delete(cfg.GoogleCalendarID, b.CalendarEventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar: event delete: %w", err)
	}
	g.log.Info("calendar event deleted", slog.String("event_id", b.CalendarEventID), slog.String("booking_id", b.ID.String()))
	return nil
}

func eventDescription(b domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("Booking Details:\n")
	sb.WriteString("- Customer: " + b.CustomerName + "\n")
	sb.WriteString("- Email: " + b.CustomerEmail + "\n")
	if b.CustomerPhone != "" {
		sb.WriteString("- Phone: " + b.CustomerPhone + "\n")
	}
	if b.Notes != "" {
		sb.WriteString("- Notes: " + b.Notes + "\n")
	}
	sb.WriteString("- Booking ID: " + b.ID.String())
	return sb.String()
}

// Disabled is the adapter used when no service-account credentials are
// configured. It reports no busy time and mirrors nothing.
type Disabled struct{}

func (Disabled) BusyIntervals(ctx context.Context, cfg domain.BookingConfig, date time.Time) ([]domain.Interval, error) {
	return nil, nil
}

func (Disabled) MirrorCreate(ctx context.Context, cfg domain.BookingConfig, b domain.Booking, svc domain.Service) (string, error) {
	return "", nil
}

func (Disabled) MirrorCancel(ctx context.Context, cfg domain.BookingConfig, b domain.Booking) error {
	return nil
}
