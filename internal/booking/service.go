package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sal186/rouze-booking-agent/internal/availability"
	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

// defaultBusyTimeout bounds the external busy-interval fetch. Past it the
// calendar is treated as empty; availability must never block on it.
const defaultBusyTimeout = 3 * time.Second

// sideEffectTimeout bounds each post-commit task (email, calendar mirror).
const sideEffectTimeout = 15 * time.Second

// Calendar supplies external busy intervals and mirrors bookings outward.
// Every call is best-effort: errors are logged and swallowed, never surfaced
// through the admission path.
type Calendar interface {
	BusyIntervals(ctx context.Context, cfg domain.BookingConfig, date time.Time) ([]domain.Interval, error)
	MirrorCreate(ctx context.Context, cfg domain.BookingConfig, b domain.Booking, svc domain.Service) (string, error)
	MirrorCancel(ctx context.Context, cfg domain.BookingConfig, b domain.Booking) error
}

// Notifier delivers customer email. Same contract as Calendar: best-effort.
type Notifier interface {
	BookingConfirmed(ctx context.Context, cfg domain.BookingConfig, b domain.Booking, svc domain.Service) error
	BookingCancelled(ctx context.Context, cfg domain.BookingConfig, b domain.Booking) error
}

// Observer receives domain events for metrics.
type Observer interface {
	BookingCreated()
	BookingCancelled()
	AdmissionConflict()
	SideEffectFailure(kind string)
}

type nopObserver struct{}

func (nopObserver) BookingCreated()               {}
func (nopObserver) BookingCancelled()             {}
func (nopObserver) AdmissionConflict()            {}
func (nopObserver) SideEffectFailure(kind string) {}

type Service struct {
	bookings    store.BookingRepository
	schedule    store.ScheduleRepository
	calendar    Calendar
	notifier    Notifier
	obs         Observer
	log         *slog.Logger
	busyTimeout time.Duration

	// dispatch runs post-commit side effects. Overridable so tests can run
	// them synchronously.
	dispatch func(fn func())
}

func NewService(bookings store.BookingRepository, schedule store.ScheduleRepository, calendar Calendar, notifier Notifier, obs Observer, log *slog.Logger) *Service {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		bookings:    bookings,
		schedule:    schedule,
		calendar:    calendar,
		notifier:    notifier,
		obs:         obs,
		log:         log.With(slog.String("component", "booking")),
		busyTimeout: defaultBusyTimeout,
		dispatch:    func(fn func()) { go fn() },
	}
}

// AvailableSlots computes the advisory slot list for a date and service. The
// snapshot can go stale the instant it returns; CreateBooking re-verifies.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time, serviceID string) ([]string, error) {
	svc, cfg, day, err := s.resolve(ctx, date, serviceID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.bookings.ListConfirmed(ctx, date)
	if err != nil {
		return nil, err
	}

	slots := availability.ComputeSlots(availability.Input{
		Hours:             day,
		DurationMinutes:   svc.DurationMinutes,
		BufferMinutes:     cfg.BufferMinutes,
		MaxBookingsPerDay: cfg.MaxBookingsPerDay,
		Confirmed:         confirmed,
		Busy:              s.busyIntervals(ctx, date, &cfg),
	})
	return availability.FormatSlots(slots), nil
}

type CreateInput struct {
	ServiceID     string
	Date          time.Time
	StartTime     domain.TimeOfDay
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
}

// CreateBooking admits a booking request. Validation happens up front; the
// overlap and daily-cap checks run again inside the store's atomic unit so
// that two concurrent requests can never both pass. On a commit-time conflict
// one retry is attempted before surfacing ErrSlotUnavailable. Side effects
// run strictly after commit and never affect the result.
func (s *Service) CreateBooking(ctx context.Context, in CreateInput) (domain.Booking, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return domain.Booking{}, validationError("customer_name is required")
	}
	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" {
		return domain.Booking{}, validationError("customer_email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Booking{}, validationError("customer_email is invalid")
	}
	if len(in.Notes) > 500 {
		return domain.Booking{}, validationError("notes too long")
	}

	svc, cfg, day, err := s.resolve(ctx, in.Date, in.ServiceID)
	if err != nil {
		return domain.Booking{}, err
	}

	candidate := domain.Interval{Start: in.StartTime, End: in.StartTime.Add(svc.DurationMinutes)}
	if candidate.Start < day.OpenTime || candidate.End > day.CloseTime {
		return domain.Booking{}, ErrSlotUnavailable
	}

	// Fetched outside the transaction: no lock is ever held across an
	// external call.
	busy := s.busyIntervals(ctx, in.Date, &cfg)
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return domain.Booking{}, ErrSlotUnavailable
		}
	}

	b := domain.Booking{
		ServiceID:       svc.ID,
		Date:            in.Date,
		StartTime:       in.StartTime,
		DurationMinutes: svc.DurationMinutes, // snapshot; catalog edits must not touch existing bookings
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		Notes:           strings.TrimSpace(in.Notes),
		Status:          domain.StatusConfirmed,
	}

	check := func(confirmed []domain.Booking, confirmedCount int) error {
		if confirmedCount >= cfg.MaxBookingsPerDay {
			return ErrDailyCapReached
		}
		for i := range confirmed {
			if candidate.Overlaps(confirmed[i].Occupied(cfg.BufferMinutes)) {
				return ErrSlotUnavailable
			}
		}
		return nil
	}

	created, err := s.bookings.InsertIfAvailable(ctx, b, check)
	if errors.Is(err, store.ErrConflict) {
		// A concurrent admission beat us to the constraint. Retry once
		// against the new committed state, then give up.
		s.obs.AdmissionConflict()
		created, err = s.bookings.InsertIfAvailable(ctx, b, check)
		if errors.Is(err, store.ErrConflict) {
			err = ErrSlotUnavailable
		}
	}
	if err != nil {
		return domain.Booking{}, err
	}

	s.obs.BookingCreated()
	s.log.Info("booking created",
		slog.String("booking_id", created.ID.String()),
		slog.String("service_id", created.ServiceID),
		slog.String("date", created.Date.Format("2006-01-02")),
		slog.String("start_time", created.StartTime.String()),
	)

	s.dispatch(func() { s.afterCreate(created, svc, cfg) })
	return created, nil
}

// CancelBooking flips a booking to cancelled. Cancelling an already-cancelled
// booking is a no-op, not an error. The freed slot is visible to the next
// availability computation immediately.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID) error {
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == domain.StatusCancelled {
		return nil
	}

	affected, err := s.bookings.SetStatus(ctx, id, domain.StatusCancelled)
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	s.obs.BookingCancelled()
	s.log.Info("booking cancelled", slog.String("booking_id", id.String()))

	cfg, cfgErr := s.schedule.GetBookingConfig(ctx)
	if cfgErr != nil {
		s.log.Warn("config load for cancel side effects failed", slog.Any("err", cfgErr))
		return nil
	}
	s.dispatch(func() { s.afterCancel(b, cfg) })
	return nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return s.bookings.Get(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, filter store.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

func (s *Service) resolve(ctx context.Context, date time.Time, serviceID string) (domain.Service, domain.BookingConfig, domain.DayHours, error) {
	svc, err := s.schedule.GetService(ctx, strings.TrimSpace(serviceID))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Service{}, domain.BookingConfig{}, domain.DayHours{}, ErrInvalidService
	}
	if err != nil {
		return domain.Service{}, domain.BookingConfig{}, domain.DayHours{}, err
	}
	if !svc.Active {
		return domain.Service{}, domain.BookingConfig{}, domain.DayHours{}, ErrInvalidService
	}

	cfg, err := s.schedule.GetBookingConfig(ctx)
	if err != nil {
		return domain.Service{}, domain.BookingConfig{}, domain.DayHours{}, err
	}

	hours, err := s.schedule.GetWeeklyHours(ctx)
	if err != nil {
		return domain.Service{}, domain.BookingConfig{}, domain.DayHours{}, err
	}
	day := hours.Day(domain.WeekdayOf(date))
	if !day.Enabled {
		return domain.Service{}, domain.BookingConfig{}, domain.DayHours{}, ErrDayClosed
	}

	return svc, cfg, day, nil
}

func (s *Service) busyIntervals(ctx context.Context, date time.Time, cfg *domain.BookingConfig) []domain.Interval {
	if s.calendar == nil {
		return nil
	}
	busyCtx, cancel := context.WithTimeout(ctx, s.busyTimeout)
	defer cancel()

	busy, err := s.calendar.BusyIntervals(busyCtx, *cfg, date)
	if err != nil {
		s.log.Warn("external busy fetch failed; treating as empty",
			slog.Any("err", err),
			slog.String("date", date.Format("2006-01-02")),
		)
		return nil
	}
	return busy
}

func (s *Service) afterCreate(b domain.Booking, svc domain.Service, cfg domain.BookingConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, cfg, b, svc); err != nil {
			s.obs.SideEffectFailure("email")
			s.log.Warn("confirmation email failed", slog.Any("err", err), slog.String("booking_id", b.ID.String()))
		}
	}

	if s.calendar != nil {
		eventID, err := s.calendar.MirrorCreate(ctx, cfg, b, svc)
		if err != nil {
			s.obs.SideEffectFailure("calendar")
			s.log.Warn("calendar mirror failed", slog.Any("err", err), slog.String("booking_id", b.ID.String()))
			return
		}
		if eventID != "" {
			if err := s.bookings.SetCalendarEventID(ctx, b.ID, eventID); err != nil {
				s.log.Warn("calendar event id persist failed", slog.Any("err", err), slog.String("booking_id", b.ID.String()))
			}
		}
	}
}

func (s *Service) afterCancel(b domain.Booking, cfg domain.BookingConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if s.notifier != nil {
		if err := s.notifier.BookingCancelled(ctx, cfg, b); err != nil {
			s.obs.SideEffectFailure("email")
			s.log.Warn("cancellation email failed", slog.Any("err", err), slog.String("booking_id", b.ID.String()))
		}
	}

	if s.calendar != nil {
		if err := s.calendar.MirrorCancel(ctx, cfg, b); err != nil {
			s.obs.SideEffectFailure("calendar")
			s.log.Warn("calendar event delete failed", slog.Any("err", err), slog.String("booking_id", b.ID.String()))
		}
	}
}
