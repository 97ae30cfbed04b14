package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) GetWeeklyHours(ctx context.Context) (domain.WeeklyHours, error) {
	var rows []domain.DayHours
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("day_of_week ASC").
		Scan(ctx)
	if err != nil {
		return domain.WeeklyHours{}, err
	}

	// Missing rows stay zero-valued, i.e. disabled.
	var hours domain.WeeklyHours
	for i := range hours {
		hours[i].Weekday = domain.Weekday(i)
	}
	for _, row := range rows {
		if row.Weekday.Valid() {
			hours[row.Weekday] = row
		}
	}
	return hours, nil
}

func (r *ScheduleRepo) UpdateDayHours(ctx context.Context, hours domain.DayHours) error {
	_, err := r.db.NewInsert().
		Model(&hours).
		On("CONFLICT (day_of_week) DO UPDATE").
		Set("open_time = EXCLUDED.open_time").
		Set("close_time = EXCLUDED.close_time").
		Set("is_enabled = EXCLUDED.is_enabled").
		Exec(ctx)
	return err
}

func (r *ScheduleRepo) GetService(ctx context.Context, id string) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Service{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (r *ScheduleRepo) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	var rows []domain.Service
	q := r.db.NewSelect().Model(&rows)
	if activeOnly {
		q = q.Where("is_active")
	}
	err := q.OrderExpr("sort_order ASC, id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepo) UpsertService(ctx context.Context, svc domain.Service) error {
	_, err := r.db.NewInsert().
		Model(&svc).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("duration_minutes = EXCLUDED.duration_minutes").
		Set("price = EXCLUDED.price").
		Set("description = EXCLUDED.description").
		Set("is_active = EXCLUDED.is_active").
		Set("sort_order = EXCLUDED.sort_order").
		Exec(ctx)
	return err
}

func (r *ScheduleRepo) DeleteService(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*domain.Service)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepo) GetBookingConfig(ctx context.Context) (domain.BookingConfig, error) {
	var cfg domain.BookingConfig
	err := r.db.NewSelect().
		Model(&cfg).
		Where("id = 1").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BookingConfig{}, store.ErrNotFound
	}
	if err != nil {
		return domain.BookingConfig{}, err
	}
	return cfg, nil
}

func (r *ScheduleRepo) UpdateBookingConfig(ctx context.Context, cfg domain.BookingConfig) error {
	cfg.ID = 1
	res, err := r.db.NewUpdate().
		Model(&cfg).
		Column("business_name", "business_email", "business_phone", "timezone",
			"buffer_minutes", "max_bookings_per_day", "google_calendar_id", "updated_at").
		Where("id = 1").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
