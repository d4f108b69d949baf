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

type indicatorRepository struct {
	pool *pgxpool.Pool
}

// NewIndicatorRepository returns the indicators table store.
func NewIndicatorRepository(pool *pgxpool.Pool) repository.IndicatorRepository {
	return &indicatorRepository{pool: pool}
}

func (r *indicatorRepository) FindByCodes(ctx context.Context, codes []string) ([]domain.IndicatorRef, error) {
	const query = `SELECT code, name FROM indicators WHERE code = ANY($1)`
	rows, err := r.pool.Query(ctx, query, emptyIfNil(codes))
	if err != nil {
		return nil, fmt.Errorf("indicators: find by codes: %w", err)
	}
	defer rows.Close()

	var refs []domain.IndicatorRef
	for rows.Next() {
		var ref domain.IndicatorRef
		if err := rows.Scan(&ref.Code, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

const indicatorColumns = `code, name, description, unit, formule, frequency, created_at, updated_at`

func (r *indicatorRepository) List(ctx context.Context) ([]domain.Indicator, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+indicatorColumns+` FROM indicators ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("indicators: list: %w", err)
	}
	defer rows.Close()

	var out []domain.Indicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ind)
	}
	return out, rows.Err()
}

func (r *indicatorRepository) Get(ctx context.Context, code string) (*domain.Indicator, error) {
	return scanIndicator(r.pool.QueryRow(ctx, `SELECT `+indicatorColumns+` FROM indicators WHERE code = $1`, code))
}

func (r *indicatorRepository) Create(ctx context.Context, ind *domain.Indicator) error {
	if ind == nil || ind.Code == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO indicators (code, name, description, unit, formule, frequency)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		ind.Code, ind.Name, nullString(ind.Description), nullString(ind.Unit),
		nullString(ind.Formule), nullString(ind.Frequency),
	).Scan(&ind.CreatedAt, &ind.UpdatedAt); err != nil {
		return mapWriteError(err, "indicator code already exists")
	}
	return nil
}

func (r *indicatorRepository) Update(ctx context.Context, ind *domain.Indicator) error {
	if ind == nil || ind.Code == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	UPDATE indicators
	SET name = $2,
		description = $3,
		unit = $4,
		formule = $5,
		frequency = $6,
		updated_at = NOW()
	WHERE code = $1
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		ind.Code, ind.Name, nullString(ind.Description), nullString(ind.Unit),
		nullString(ind.Formule), nullString(ind.Frequency),
	).Scan(&ind.CreatedAt, &ind.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrIndicatorNotFound
		}
		return err
	}
	return nil
}

func (r *indicatorRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM indicators WHERE code = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIndicatorNotFound
	}
	return nil
}

func scanIndicator(row scanner) (*domain.Indicator, error) {
	var (
		ind                                  domain.Indicator
		description, unit, formule, frequency *string
	)
	if err := row.Scan(&ind.Code, &ind.Name, &description, &unit, &formule, &frequency,
		&ind.CreatedAt, &ind.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIndicatorNotFound
		}
		return nil, err
	}
	ind.Description = derefString(description)
	ind.Unit = derefString(unit)
	ind.Formule = derefString(formule)
	ind.Frequency = derefString(frequency)
	return &ind, nil
}
