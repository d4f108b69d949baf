package repository

import (
	"context"
	"time"

	"github.com/fastygo/energy-backoffice/domain"
)

type PeriodFilter struct {
	OrganizationName string
	Year             int
	PeriodType       string
	Status           string
}

type PeriodRepository interface {
	List(ctx context.Context, filter PeriodFilter) ([]domain.CollectionPeriod, error)
	GetByID(ctx context.Context, id string) (*domain.CollectionPeriod, error)
	// Upsert inserts or updates on the natural key (organization, year, type, number).
	Upsert(ctx context.Context, period *domain.CollectionPeriod) error
	Delete(ctx context.Context, id string) error
	// CloseEnded flips open periods whose end date is before the reference day.
	CloseEnded(ctx context.Context, reference time.Time) (int64, error)
}
