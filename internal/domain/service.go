package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Service is a bookable offering from the catalog. A service whose duration
// fits no enabled open interval simply yields empty slot lists; it is never
// an error.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              string    `bun:"id,pk"`
	Name            string    `bun:"name,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	Price           float64   `bun:"price,notnull"`
	Description     string    `bun:"description,notnull"`
	Active          bool      `bun:"is_active,notnull"`
	SortOrder       int       `bun:"sort_order,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
