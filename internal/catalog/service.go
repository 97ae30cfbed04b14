// Package catalog owns the administrative surface: the service catalog, the
// weekly hours, and the booking-config singleton. It only ever mutates
// configuration; bookings are out of its reach.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	schedule store.ScheduleRepository
	log      *slog.Logger
}

func NewService(schedule store.ScheduleRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{schedule: schedule, log: log.With(slog.String("component", "catalog"))}
}

func (s *Service) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	return s.schedule.ListServices(ctx, activeOnly)
}

type ServiceInput struct {
	ID              string
	Name            string
	DurationMinutes int
	Price           float64
	Description     string
	Active          bool
	SortOrder       int
}

func (s *Service) UpsertService(ctx context.Context, in ServiceInput) (domain.Service, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return domain.Service{}, validationError("id is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Service{}, validationError("name is required")
	}
	if in.DurationMinutes <= 0 {
		return domain.Service{}, validationError("duration_minutes must be positive")
	}
	if in.Price < 0 {
		return domain.Service{}, validationError("price must not be negative")
	}

	svc := domain.Service{
		ID:              id,
		Name:            name,
		DurationMinutes: in.DurationMinutes,
		Price:           in.Price,
		Description:     strings.TrimSpace(in.Description),
		Active:          in.Active,
		SortOrder:       in.SortOrder,
	}
	if err := s.schedule.UpsertService(ctx, svc); err != nil {
		return domain.Service{}, err
	}
	s.log.Info("service upserted", slog.String("service_id", id))
	return svc, nil
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return validationError("id is required")
	}
	if err := s.schedule.DeleteService(ctx, id); err != nil {
		return err
	}
	s.log.Info("service deleted", slog.String("service_id", id))
	return nil
}

func (s *Service) WeeklyHours(ctx context.Context) (domain.WeeklyHours, error) {
	return s.schedule.GetWeeklyHours(ctx)
}

type DayHoursInput struct {
	Weekday   domain.Weekday
	OpenTime  string
	CloseTime string
	Enabled   bool
}

func (s *Service) UpdateDayHours(ctx context.Context, in DayHoursInput) (domain.DayHours, error) {
	if !in.Weekday.Valid() {
		return domain.DayHours{}, validationError("weekday out of range")
	}
	open, err := domain.ParseTimeOfDay(in.OpenTime)
	if err != nil {
		return domain.DayHours{}, validationError("open_time is invalid")
	}
	closeAt, err := domain.ParseTimeOfDay(in.CloseTime)
	if err != nil {
		return domain.DayHours{}, validationError("close_time is invalid")
	}
	if in.Enabled && !open.Before(closeAt) {
		return domain.DayHours{}, validationError("open_time must be before close_time")
	}

	hours := domain.DayHours{
		Weekday:   in.Weekday,
		OpenTime:  open,
		CloseTime: closeAt,
		Enabled:   in.Enabled,
	}
	if err := s.schedule.UpdateDayHours(ctx, hours); err != nil {
		return domain.DayHours{}, err
	}
	s.log.Info("weekly hours updated", slog.String("weekday", in.Weekday.String()))
	return hours, nil
}

func (s *Service) BookingConfig(ctx context.Context) (domain.BookingConfig, error) {
	return s.schedule.GetBookingConfig(ctx)
}

type ConfigInput struct {
	BusinessName      string
	BusinessEmail     string
	BusinessPhone     string
	Timezone          string
	BufferMinutes     int
	MaxBookingsPerDay int
	GoogleCalendarID  string
}

func (s *Service) UpdateBookingConfig(ctx context.Context, in ConfigInput) (domain.BookingConfig, error) {
	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		return domain.BookingConfig{}, validationError("business_name is required")
	}
	if in.BufferMinutes < 0 {
		return domain.BookingConfig{}, validationError("buffer_minutes must not be negative")
	}
	if in.MaxBookingsPerDay < 0 {
		return domain.BookingConfig{}, validationError("max_bookings_per_day must not be negative")
	}
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		return domain.BookingConfig{}, validationError("timezone is required")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return domain.BookingConfig{}, validationError("timezone is invalid")
	}

	cfg := domain.BookingConfig{
		ID:                1,
		BusinessName:      name,
		BusinessEmail:     strings.TrimSpace(in.BusinessEmail),
		BusinessPhone:     strings.TrimSpace(in.BusinessPhone),
		Timezone:          tz,
		BufferMinutes:     in.BufferMinutes,
		MaxBookingsPerDay: in.MaxBookingsPerDay,
		GoogleCalendarID:  strings.TrimSpace(in.GoogleCalendarID),
	}
	if err := s.schedule.UpdateBookingConfig(ctx, cfg); err != nil {
		return domain.BookingConfig{}, err
	}
	s.log.Info("booking config updated")
	return s.schedule.GetBookingConfig(ctx)
}
