package repository

import (
	"context"

	"github.com/fastygo/energy-backoffice/domain"
)

// JoinRowReader reads sector_standards_issues_criteria_indicators.
type JoinRowReader interface {
	FindJoinRows(ctx context.Context, sector, energyType, standard string) ([]domain.JoinRow, error)
}

// IndicatorReader resolves indicator codes to display records.
type IndicatorReader interface {
	FindByCodes(ctx context.Context, codes []string) ([]domain.IndicatorRef, error)
}

// TaxonomyRepository exposes the cascading option lookups and join-row writes.
type TaxonomyRepository interface {
	JoinRowReader
	ListSectors(ctx context.Context) ([]string, error)
	ListEnergyTypes(ctx context.Context, sector string) ([]string, error)
	ListStandards(ctx context.Context, sector string, energyTypes []string) ([]string, error)
	ListIssues(ctx context.Context, sector string, energyTypes, standards []string) ([]string, error)
	ListCriteria(ctx context.Context, sector string, energyTypes, standards, issues []string) ([]string, error)
	UpsertJoinRecord(ctx context.Context, record *domain.JoinRecord) error
	// LinkIndicator appends code to the row's indicator_codes unless already present.
	LinkIndicator(ctx context.Context, key domain.JoinKey, code, unit string) error
	// UnlinkIndicator removes code from every row referencing it.
	UnlinkIndicator(ctx context.Context, code string) error
}

type IndicatorRepository interface {
	IndicatorReader
	List(ctx context.Context) ([]domain.Indicator, error)
	Get(ctx context.Context, code string) (*domain.Indicator, error)
	Create(ctx context.Context, indicator *domain.Indicator) error
	Update(ctx context.Context, indicator *domain.Indicator) error
	Delete(ctx context.Context, code string) error
}

type SelectionRepository interface {
	Save(ctx context.Context, selection *domain.IndicatorSelection) error
	ListByOrganization(ctx context.Context, organization string) ([]domain.IndicatorSelection, error)
}
