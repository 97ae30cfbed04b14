package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

type fakeScheduleRepo struct {
	services map[string]domain.Service
	hours    domain.WeeklyHours
	cfg      domain.BookingConfig
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		services: map[string]domain.Service{},
		cfg: domain.BookingConfig{
			ID:                1,
			BusinessName:      "Acme Studio",
			Timezone:          "America/New_York",
			BufferMinutes:     15,
			MaxBookingsPerDay: 8,
		},
	}
}

func (f *fakeScheduleRepo) GetWeeklyHours(ctx context.Context) (domain.WeeklyHours, error) {
	return f.hours, nil
}

func (f *fakeScheduleRepo) UpdateDayHours(ctx context.Context, hours domain.DayHours) error {
	f.hours[hours.Weekday] = hours
	return nil
}

func (f *fakeScheduleRepo) GetService(ctx context.Context, id string) (domain.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (f *fakeScheduleRepo) ListServices(ctx context.Context, activeOnly bool) ([]domain.Service, error) {
	var out []domain.Service
	for _, svc := range f.services {
		if activeOnly && !svc.Active {
			continue
		}
		out = append(out, svc)
	}
	return out, nil
}

func (f *fakeScheduleRepo) UpsertService(ctx context.Context, svc domain.Service) error {
	f.services[svc.ID] = svc
	return nil
}

func (f *fakeScheduleRepo) DeleteService(ctx context.Context, id string) error {
	if _, ok := f.services[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.services, id)
	return nil
}

func (f *fakeScheduleRepo) GetBookingConfig(ctx context.Context) (domain.BookingConfig, error) {
	return f.cfg, nil
}

func (f *fakeScheduleRepo) UpdateBookingConfig(ctx context.Context, cfg domain.BookingConfig) error {
	cfg.CreatedAt = f.cfg.CreatedAt
	f.cfg = cfg
	return nil
}

func TestUpsertService_Validation(t *testing.T) {
	svc := NewService(newFakeScheduleRepo(), nil)

	cases := []struct {
		name string
		in   ServiceInput
	}{
		{name: "missing id", in: ServiceInput{Name: "x", DurationMinutes: 30}},
		{name: "missing name", in: ServiceInput{ID: "svc", DurationMinutes: 30}},
		{name: "zero duration", in: ServiceInput{ID: "svc", Name: "x"}},
		{name: "negative duration", in: ServiceInput{ID: "svc", Name: "x", DurationMinutes: -30}},
		{name: "negative price", in: ServiceInput{ID: "svc", Name: "x", DurationMinutes: 30, Price: -1}},
	}
	for _, tc := range cases {
		_, err := svc.UpsertService(context.Background(), tc.in)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: error type = %T, want *ValidationError", tc.name, err)
		}
	}
}

func TestUpsertService_TrimsAndStores(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewService(repo, nil)

	created, err := svc.UpsertService(context.Background(), ServiceInput{
		ID:              " svc_intro ",
		Name:            "  Intro Call ",
		DurationMinutes: 30,
		Price:           50,
		Active:          true,
	})
	if err != nil {
		t.Fatalf("UpsertService error: %v", err)
	}
	if created.ID != "svc_intro" || created.Name != "Intro Call" {
		t.Fatalf("trim failed: id=%q name=%q", created.ID, created.Name)
	}
	if _, ok := repo.services["svc_intro"]; !ok {
		t.Fatalf("service not stored")
	}
}

func TestDeleteService_NotFound(t *testing.T) {
	svc := NewService(newFakeScheduleRepo(), nil)
	if err := svc.DeleteService(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want store.ErrNotFound", err)
	}
}

func TestUpdateDayHours_Validation(t *testing.T) {
	svc := NewService(newFakeScheduleRepo(), nil)

	cases := []struct {
		name string
		in   DayHoursInput
	}{
		{name: "bad weekday", in: DayHoursInput{Weekday: 7, OpenTime: "09:00", CloseTime: "17:00"}},
		{name: "bad open", in: DayHoursInput{Weekday: domain.Monday, OpenTime: "25:00", CloseTime: "17:00"}},
		{name: "bad close", in: DayHoursInput{Weekday: domain.Monday, OpenTime: "09:00", CloseTime: "17:99"}},
		{name: "inverted enabled", in: DayHoursInput{Weekday: domain.Monday, OpenTime: "17:00", CloseTime: "09:00", Enabled: true}},
	}
	for _, tc := range cases {
		_, err := svc.UpdateDayHours(context.Background(), tc.in)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: error type = %T, want *ValidationError", tc.name, err)
		}
	}
}

func TestUpdateDayHours_Stores(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := NewService(repo, nil)

	day, err := svc.UpdateDayHours(context.Background(), DayHoursInput{
		Weekday:   domain.Saturday,
		OpenTime:  "10:00",
		CloseTime: "14:00",
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("UpdateDayHours error: %v", err)
	}
	if !day.Enabled || day.OpenTime.String() != "10:00" {
		t.Fatalf("unexpected result: %+v", day)
	}
	if !repo.hours[domain.Saturday].Enabled {
		t.Fatalf("hours not stored")
	}
}

func TestUpdateBookingConfig_Validation(t *testing.T) {
	svc := NewService(newFakeScheduleRepo(), nil)

	cases := []struct {
		name string
		in   ConfigInput
	}{
		{name: "missing name", in: ConfigInput{Timezone: "UTC"}},
		{name: "negative buffer", in: ConfigInput{BusinessName: "x", Timezone: "UTC", BufferMinutes: -1}},
		{name: "negative cap", in: ConfigInput{BusinessName: "x", Timezone: "UTC", MaxBookingsPerDay: -1}},
		{name: "missing timezone", in: ConfigInput{BusinessName: "x"}},
		{name: "bad timezone", in: ConfigInput{BusinessName: "x", Timezone: "Mars/Olympus"}},
	}
	for _, tc := range cases {
		_, err := svc.UpdateBookingConfig(context.Background(), tc.in)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: error type = %T, want *ValidationError", tc.name, err)
		}
	}
}

func TestUpdateBookingConfig_ZeroCapAllowed(t *testing.T) {
	// A cap of zero is a valid way to pause new bookings entirely.
	repo := newFakeScheduleRepo()
	svc := NewService(repo, nil)

	cfg, err := svc.UpdateBookingConfig(context.Background(), ConfigInput{
		BusinessName:      "Acme Studio",
		Timezone:          "UTC",
		BufferMinutes:     0,
		MaxBookingsPerDay: 0,
	})
	if err != nil {
		t.Fatalf("UpdateBookingConfig error: %v", err)
	}
	if cfg.MaxBookingsPerDay != 0 {
		t.Fatalf("cap = %d, want 0", cfg.MaxBookingsPerDay)
	}
}
