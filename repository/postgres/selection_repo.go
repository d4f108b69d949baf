package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type selectionRepository struct {
	pool *pgxpool.Pool
}

// NewSelectionRepository stores wizard hand-off payloads.
func NewSelectionRepository(pool *pgxpool.Pool) repository.SelectionRepository {
	return &selectionRepository{pool: pool}
}

func (r *selectionRepository) Save(ctx context.Context, s *domain.IndicatorSelection) error {
	if s == nil {
		return domain.ErrInvalidPayload
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const query = `
	INSERT INTO indicator_selections
		(id, organization_name, sector_name, energy_types, standards, issues, criteria, indicator_names, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at
	`
	sel := s.Selection
	if err := r.pool.QueryRow(ctx, query,
		s.ID,
		nullString(s.OrganizationName),
		sel.Sector,
		emptyIfNil(sel.EnergyTypes),
		emptyIfNil(sel.Standards),
		emptyIfNil(sel.Issues),
		emptyIfNil(sel.Criteria),
		emptyIfNil(s.IndicatorNames),
		s.CreatedBy,
	).Scan(&s.CreatedAt); err != nil {
		return mapWriteError(err, "selection already saved")
	}
	return nil
}

func (r *selectionRepository) ListByOrganization(ctx context.Context, organization string) ([]domain.IndicatorSelection, error) {
	const query = `
	SELECT id, organization_name, sector_name, energy_types, standards, issues, criteria,
		indicator_names, created_by, created_at
	FROM indicator_selections
	WHERE ($1 = '' OR organization_name = $1)
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, organization)
	if err != nil {
		return nil, fmt.Errorf("indicator_selections: list: %w", err)
	}
	defer rows.Close()

	var out []domain.IndicatorSelection
	for rows.Next() {
		var (
			s   domain.IndicatorSelection
			org *string
		)
		if err := rows.Scan(&s.ID, &org, &s.Selection.Sector, &s.Selection.EnergyTypes,
			&s.Selection.Standards, &s.Selection.Issues, &s.Selection.Criteria,
			&s.IndicatorNames, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.OrganizationName = derefString(org)
		out = append(out, s)
	}
	return out, rows.Err()
}
