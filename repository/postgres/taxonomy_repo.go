package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type taxonomyRepository struct {
	pool *pgxpool.Pool
}

// NewTaxonomyRepository reads and writes sector_standards_issues_criteria_indicators.
func NewTaxonomyRepository(pool *pgxpool.Pool) repository.TaxonomyRepository {
	return &taxonomyRepository{pool: pool}
}

func (r *taxonomyRepository) FindJoinRows(ctx context.Context, sector, energyType, standard string) ([]domain.JoinRow, error) {
	const query = `
	SELECT criteria_name, indicator_codes, created_at, unit
	FROM sector_standards_issues_criteria_indicators
	WHERE sector_name = $1 AND energy_type_name = $2 AND standard_name = $3
	`
	rows, err := r.pool.Query(ctx, query, sector, energyType, standard)
	if err != nil {
		return nil, fmt.Errorf("join rows: find: %w", err)
	}
	defer rows.Close()

	var out []domain.JoinRow
	for rows.Next() {
		var row domain.JoinRow
		if err := rows.Scan(&row.CriteriaName, &row.IndicatorCodes, &row.CreatedAt, &row.Unit); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *taxonomyRepository) ListSectors(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT name FROM sectors ORDER BY name`)
}

func (r *taxonomyRepository) ListEnergyTypes(ctx context.Context, sector string) ([]string, error) {
	return r.names(ctx, `
	SELECT DISTINCT energy_type_name FROM sector_standards_issues_criteria_indicators
	WHERE sector_name = $1
	ORDER BY 1`, sector)
}

func (r *taxonomyRepository) ListStandards(ctx context.Context, sector string, energyTypes []string) ([]string, error) {
	return r.names(ctx, `
	SELECT DISTINCT standard_name FROM sector_standards_issues_criteria_indicators
	WHERE sector_name = $1 AND energy_type_name = ANY($2)
	ORDER BY 1`, sector, emptyIfNil(energyTypes))
}

func (r *taxonomyRepository) ListIssues(ctx context.Context, sector string, energyTypes, standards []string) ([]string, error) {
	return r.names(ctx, `
	SELECT DISTINCT issue_name FROM sector_standards_issues_criteria_indicators
	WHERE sector_name = $1 AND energy_type_name = ANY($2) AND standard_name = ANY($3)
	ORDER BY 1`, sector, emptyIfNil(energyTypes), emptyIfNil(standards))
}

func (r *taxonomyRepository) ListCriteria(ctx context.Context, sector string, energyTypes, standards, issues []string) ([]string, error) {
	return r.names(ctx, `
	SELECT DISTINCT criteria_name FROM sector_standards_issues_criteria_indicators
	WHERE sector_name = $1 AND energy_type_name = ANY($2) AND standard_name = ANY($3) AND issue_name = ANY($4)
	ORDER BY 1`, sector, emptyIfNil(energyTypes), emptyIfNil(standards), emptyIfNil(issues))
}

func (r *taxonomyRepository) UpsertJoinRecord(ctx context.Context, record *domain.JoinRecord) error {
	if record == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO sector_standards_issues_criteria_indicators
		(sector_name, energy_type_name, standard_name, issue_name, criteria_name, indicator_codes, unit)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (sector_name, energy_type_name, standard_name, issue_name, criteria_name) DO UPDATE
	SET indicator_codes = EXCLUDED.indicator_codes,
		unit = EXCLUDED.unit
	RETURNING created_at
	`
	k := record.JoinKey
	if err := r.pool.QueryRow(ctx, query,
		k.SectorName, k.EnergyTypeName, k.StandardName, k.IssueName, k.CriteriaName,
		emptyIfNil(record.IndicatorCodes), nullString(record.Unit),
	).Scan(&record.CreatedAt); err != nil {
		return mapWriteError(err, "join row already exists")
	}
	return nil
}

func (r *taxonomyRepository) LinkIndicator(ctx context.Context, key domain.JoinKey, code, unit string) error {
	const query = `
	INSERT INTO sector_standards_issues_criteria_indicators
		(sector_name, energy_type_name, standard_name, issue_name, criteria_name, indicator_codes, unit)
	VALUES ($1, $2, $3, $4, $5, ARRAY[$6::text], $7)
	ON CONFLICT (sector_name, energy_type_name, standard_name, issue_name, criteria_name) DO UPDATE
	SET indicator_codes = CASE
			WHEN $6 = ANY(sector_standards_issues_criteria_indicators.indicator_codes)
			THEN sector_standards_issues_criteria_indicators.indicator_codes
			ELSE array_append(sector_standards_issues_criteria_indicators.indicator_codes, $6)
		END,
		unit = COALESCE(sector_standards_issues_criteria_indicators.unit, EXCLUDED.unit)
	`
	_, err := r.pool.Exec(ctx, query,
		key.SectorName, key.EnergyTypeName, key.StandardName, key.IssueName, key.CriteriaName,
		code, nullString(unit))
	return mapWriteError(err, "join row conflict")
}

func (r *taxonomyRepository) UnlinkIndicator(ctx context.Context, code string) error {
	const query = `
	UPDATE sector_standards_issues_criteria_indicators
	SET indicator_codes = array_remove(indicator_codes, $1)
	WHERE $1 = ANY(indicator_codes)
	`
	_, err := r.pool.Exec(ctx, query, code)
	return err
}

func (r *taxonomyRepository) names(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
