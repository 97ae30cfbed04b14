package store

import (
	"context"

	"github.com/sal186/rouze-booking-agent/internal/domain"
)

type ScheduleRepository interface {
	GetWeeklyHours(ctx context.Context) (domain.WeeklyHours, error)
	UpdateDayHours(ctx context.Context, hours domain.DayHours) error

	GetService(ctx context.Context, id string) (domain.Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error)
	UpsertService(ctx context.Context, svc domain.Service) error
	DeleteService(ctx context.Context, id string) error

	GetBookingConfig(ctx context.Context) (domain.BookingConfig, error)
	UpdateBookingConfig(ctx context.Context, cfg domain.BookingConfig) error
}
