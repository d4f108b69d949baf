package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository covers organizations and the filieres, filiales and sites tables.
func NewOrganizationRepository(pool *pgxpool.Pool) repository.OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	const query = `
	SELECT name, description, address, city, country, created_at, updated_at
	FROM organizations
	ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("organizations: list: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func (r *organizationRepository) Get(ctx context.Context, name string) (*domain.Organization, error) {
	const query = `
	SELECT name, description, address, city, country, created_at, updated_at
	FROM organizations
	WHERE name = $1
	`
	return scanOrganization(r.pool.QueryRow(ctx, query, name))
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	if org == nil || org.Name == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO organizations (name, description, address, city, country)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		org.Name,
		nullString(org.Description),
		nullString(org.Address),
		nullString(org.City),
		nullString(org.Country),
	).Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		return mapWriteError(err, "organization already exists")
	}
	return nil
}

func (r *organizationRepository) Update(ctx context.Context, name string, org *domain.Organization) error {
	if org == nil {
		return domain.ErrInvalidPayload
	}
	if org.Name == "" {
		org.Name = name
	}
	const query = `
	UPDATE organizations
	SET name = $2,
		description = $3,
		address = $4,
		city = $5,
		country = $6,
		updated_at = NOW()
	WHERE name = $1
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		name,
		org.Name,
		nullString(org.Description),
		nullString(org.Address),
		nullString(org.City),
		nullString(org.Country),
	).Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrganizationMissing
		}
		return mapWriteError(err, "organization already exists")
	}
	return nil
}

func (r *organizationRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE name = $1`, name)
	if err != nil {
		return mapWriteError(err, "organization in use")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrganizationMissing
	}
	return nil
}

func (r *organizationRepository) ListUnits(ctx context.Context, level domain.UnitLevel, organization string) ([]domain.OrgUnit, error) {
	table, err := unitTable(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
	SELECT name, organization_name, %s, created_at, updated_at
	FROM %s
	WHERE ($1 = '' OR organization_name = $1)
	ORDER BY organization_name, name
	`, unitColumns(level), table)

	rows, err := r.pool.Query(ctx, query, organization)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", table, err)
	}
	defer rows.Close()

	var units []domain.OrgUnit
	for rows.Next() {
		unit, err := scanUnit(rows, level)
		if err != nil {
			return nil, err
		}
		units = append(units, *unit)
	}
	return units, rows.Err()
}

func (r *organizationRepository) CreateUnit(ctx context.Context, unit *domain.OrgUnit) error {
	if unit == nil || unit.Name == "" || unit.OrganizationName == "" {
		return domain.ErrInvalidPayload
	}
	var (
		query string
		args  []interface{}
	)
	switch unit.Level {
	case domain.LevelFiliere:
		query = `INSERT INTO filieres (name, organization_name) VALUES ($1, $2) RETURNING created_at, updated_at`
		args = []interface{}{unit.Name, unit.OrganizationName}
	case domain.LevelFiliale:
		query = `INSERT INTO filiales (name, organization_name, filiere_name) VALUES ($1, $2, $3) RETURNING created_at, updated_at`
		args = []interface{}{unit.Name, unit.OrganizationName, nullString(unit.FiliereName)}
	case domain.LevelSite:
		query = `
		INSERT INTO sites (name, organization_name, filiere_name, filiale_name, address, city)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
		args = []interface{}{unit.Name, unit.OrganizationName, nullString(unit.FiliereName),
			nullString(unit.FilialeName), nullString(unit.Address), nullString(unit.City)}
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown unit level")
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&unit.CreatedAt, &unit.UpdatedAt); err != nil {
		return mapWriteError(err, fmt.Sprintf("%s already exists", unit.Level))
	}
	return nil
}

func (r *organizationRepository) UpdateUnit(ctx context.Context, name string, unit *domain.OrgUnit) error {
	if unit == nil || unit.OrganizationName == "" {
		return domain.ErrInvalidPayload
	}
	if unit.Name == "" {
		unit.Name = name
	}
	var (
		query string
		args  []interface{}
	)
	switch unit.Level {
	case domain.LevelFiliere:
		query = `UPDATE filieres SET name = $3, updated_at = NOW()
		WHERE organization_name = $1 AND name = $2 RETURNING created_at, updated_at`
		args = []interface{}{unit.OrganizationName, name, unit.Name}
	case domain.LevelFiliale:
		query = `UPDATE filiales SET name = $3, filiere_name = $4, updated_at = NOW()
		WHERE organization_name = $1 AND name = $2 RETURNING created_at, updated_at`
		args = []interface{}{unit.OrganizationName, name, unit.Name, nullString(unit.FiliereName)}
	case domain.LevelSite:
		query = `UPDATE sites SET name = $3, filiere_name = $4, filiale_name = $5, address = $6, city = $7, updated_at = NOW()
		WHERE organization_name = $1 AND name = $2 RETURNING created_at, updated_at`
		args = []interface{}{unit.OrganizationName, name, unit.Name, nullString(unit.FiliereName),
			nullString(unit.FilialeName), nullString(unit.Address), nullString(unit.City)}
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown unit level")
	}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&unit.CreatedAt, &unit.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUnitNotFound
		}
		return mapWriteError(err, fmt.Sprintf("%s already exists", unit.Level))
	}
	return nil
}

func (r *organizationRepository) DeleteUnit(ctx context.Context, level domain.UnitLevel, organization, name string) error {
	table, err := unitTable(level)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE organization_name = $1 AND name = $2`, table), organization, name)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("%s in use", level))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnitNotFound
	}
	return nil
}

func unitTable(level domain.UnitLevel) (string, error) {
	switch level {
	case domain.LevelFiliere:
		return "filieres", nil
	case domain.LevelFiliale:
		return "filiales", nil
	case domain.LevelSite:
		return "sites", nil
	default:
		return "", domain.NewError(domain.ErrCodeInvalid, "unknown unit level")
	}
}

// unitColumns lists the level-specific columns, padded with NULLs so every level scans alike.
func unitColumns(level domain.UnitLevel) string {
	switch level {
	case domain.LevelFiliale:
		return "filiere_name, NULL::text, NULL::text, NULL::text"
	case domain.LevelSite:
		return "filiere_name, filiale_name, address, city"
	default:
		return "NULL::text, NULL::text, NULL::text, NULL::text"
	}
}

func scanUnit(row scanner, level domain.UnitLevel) (*domain.OrgUnit, error) {
	var (
		unit                           domain.OrgUnit
		filiere, filiale, address, city *string
	)
	if err := row.Scan(&unit.Name, &unit.OrganizationName, &filiere, &filiale, &address, &city,
		&unit.CreatedAt, &unit.UpdatedAt); err != nil {
		return nil, err
	}
	unit.Level = level
	unit.FiliereName = derefString(filiere)
	unit.FilialeName = derefString(filiale)
	unit.Address = derefString(address)
	unit.City = derefString(city)
	return &unit, nil
}

func scanOrganization(row scanner) (*domain.Organization, error) {
	var (
		org                                 domain.Organization
		description, address, city, country *string
	)
	if err := row.Scan(&org.Name, &description, &address, &city, &country, &org.CreatedAt, &org.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrganizationMissing
		}
		return nil, err
	}
	org.Description = derefString(description)
	org.Address = derefString(address)
	org.City = derefString(city)
	org.Country = derefString(country)
	return &org, nil
}
