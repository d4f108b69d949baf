package repository

import (
	"context"

	"github.com/fastygo/energy-backoffice/domain"
)

type OrganizationRepository interface {
	List(ctx context.Context) ([]domain.Organization, error)
	Get(ctx context.Context, name string) (*domain.Organization, error)
	Create(ctx context.Context, org *domain.Organization) error
	Update(ctx context.Context, name string, org *domain.Organization) error
	Delete(ctx context.Context, name string) error

	ListUnits(ctx context.Context, level domain.UnitLevel, organization string) ([]domain.OrgUnit, error)
	CreateUnit(ctx context.Context, unit *domain.OrgUnit) error
	UpdateUnit(ctx context.Context, name string, unit *domain.OrgUnit) error
	DeleteUnit(ctx context.Context, level domain.UnitLevel, organization, name string) error
}
