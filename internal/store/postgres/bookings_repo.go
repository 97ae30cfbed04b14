package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/sal186/rouze-booking-agent/internal/domain"
	"github.com/sal186/rouze-booking-agent/internal/store"
)

const dateFormat = "2006-01-02"

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// InsertIfAvailable is the admission protocol's atomic unit. All writers for
// a date serialize on a per-date advisory lock, so the conflict check always
// sees the latest committed state for that date. The partial unique index on
// (booking_date, start_time) WHERE status = 'confirmed' backstops the
// identical-slot race and surfaces as ErrConflict.
func (r *BookingRepo) InsertIfAvailable(ctx context.Context, b domain.Booking, check store.ConflictCheck) (domain.Booking, error) {
	var out domain.Booking
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDate(ctx, tx, b.Date); err != nil {
			return err
		}

		confirmed, err := listConfirmed(ctx, tx, b.Date)
		if err != nil {
			return err
		}
		if err := check(confirmed, len(confirmed)); err != nil {
			return err
		}

		m := b
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return store.ErrConflict
			}
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) List(ctx context.Context, filter store.BookingFilter) ([]domain.Booking, error) {
	var rows []domain.Booking
	q := r.db.NewSelect().Model(&rows)
	if filter.Date != nil {
		q = q.Where("booking_date = ?", filter.Date.Format(dateFormat))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	err := q.OrderExpr("booking_date ASC, start_time ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) ListConfirmed(ctx context.Context, date time.Time) ([]domain.Booking, error) {
	return listConfirmed(ctx, r.db, date)
}

func (r *BookingRepo) CountConfirmed(ctx context.Context, date time.Time) (int, error) {
	return r.db.NewSelect().
		Model((*domain.Booking)(nil)).
		Where("booking_date = ?", date.Format(dateFormat)).
		Where("status = ?", domain.StatusConfirmed).
		Count(ctx)
}

func (r *BookingRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BookingRepo) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	_, err := r.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("calendar_event_id = ?", eventID).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type selectQuerier interface {
	NewSelect() *bun.SelectQuery
}

func listConfirmed(ctx context.Context, q selectQuerier, date time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := q.NewSelect().
		Model(&rows).
		Where("booking_date = ?", date.Format(dateFormat)).
		Where("status = ?", domain.StatusConfirmed).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func lockDate(ctx context.Context, tx bun.Tx, date time.Time) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", date.Format(dateFormat)).Exec(ctx)
	return err
}
