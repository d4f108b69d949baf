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

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Get(ctx context.Context, email string) (*domain.Profile, error) {
	const query = `
	SELECT p.email, p.role, p.organization_name, p.organization_level, p.filiere_name,
		p.filiale_name, p.site_name, p.original_role, p.created_at, p.updated_at
	FROM profiles p
	WHERE p.email = $1
	`
	var addr string
	profile, err := scanProfileInto(r.pool.QueryRow(ctx, query, email), &addr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profiles: get: %w", err)
	}
	profile.Email = addr
	return profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.Email == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO profiles (email, role, organization_name, organization_level, filiere_name,
		filiale_name, site_name, original_role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()), NOW())
	ON CONFLICT (email) DO UPDATE
	SET role = EXCLUDED.role,
		organization_name = EXCLUDED.organization_name,
		organization_level = EXCLUDED.organization_level,
		filiere_name = EXCLUDED.filiere_name,
		filiale_name = EXCLUDED.filiale_name,
		site_name = EXCLUDED.site_name,
		original_role = EXCLUDED.original_role,
		updated_at = NOW()
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		profile.Email,
		string(profile.Role),
		nullString(profile.OrganizationName),
		nullString(profile.OrganizationLevel),
		nullString(profile.FiliereName),
		nullString(profile.FilialeName),
		nullString(profile.SiteName),
		nullString(string(profile.OriginalRole)),
		nullTime(profile.CreatedAt),
	).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return mapWriteError(err, "profile already exists")
	}
	return nil
}

// scanProfileInto scans the leading destinations followed by the profile columns
// (role through updated_at). The caller fills Profile.Email.
func scanProfileInto(row scanner, lead ...interface{}) (*domain.Profile, error) {
	var (
		profile                                  domain.Profile
		role                                     string
		org, level, filiere, filiale, site, orig *string
	)
	dest := append(lead,
		&role, &org, &level, &filiere, &filiale, &site, &orig,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	profile.Role = domain.Role(role)
	profile.OrganizationName = derefString(org)
	profile.OrganizationLevel = derefString(level)
	profile.FiliereName = derefString(filiere)
	profile.FilialeName = derefString(filiale)
	profile.SiteName = derefString(site)
	profile.OriginalRole = domain.Role(derefString(orig))
	return &profile, nil
}
