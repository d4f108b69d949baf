package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type periodRepository struct {
	pool *pgxpool.Pool
}

// NewPeriodRepository returns a Postgres-backed collection period repository.
func NewPeriodRepository(pool *pgxpool.Pool) repository.PeriodRepository {
	return &periodRepository{pool: pool}
}

const periodColumns = `id, organization_name, year, period_type, period_number, start_date, end_date, status, created_at, updated_at`

func (r *periodRepository) List(ctx context.Context, filter repository.PeriodFilter) ([]domain.CollectionPeriod, error) {
	query := `
	SELECT ` + periodColumns + `
	FROM collection_periods
	WHERE ($1 = '' OR organization_name = $1)
	  AND ($2 = 0 OR year = $2)
	  AND ($3 = '' OR period_type = $3)
	  AND ($4 = '' OR status = $4)
	ORDER BY organization_name, year DESC, period_type, period_number
	`
	rows, err := r.pool.Query(ctx, query, filter.OrganizationName, filter.Year, filter.PeriodType, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("collection_periods: list: %w", err)
	}
	defer rows.Close()

	var periods []domain.CollectionPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func (r *periodRepository) GetByID(ctx context.Context, id string) (*domain.CollectionPeriod, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrPeriodNotFound
	}
	query := `SELECT ` + periodColumns + ` FROM collection_periods WHERE id = $1`
	return scanPeriod(r.pool.QueryRow(ctx, query, id))
}

func (r *periodRepository) Upsert(ctx context.Context, p *domain.CollectionPeriod) error {
	if p == nil {
		return domain.ErrInvalidPayload
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.PeriodStatusOpen
	}

	// The natural key is unique; the conflict arm keeps the existing id.
	const query = `
	INSERT INTO collection_periods (id, organization_name, year, period_type, period_number, start_date, end_date, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (organization_name, year, period_type, period_number) DO UPDATE
	SET start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		status = EXCLUDED.status,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.OrganizationName,
		p.Year,
		string(p.PeriodType),
		p.PeriodNumber,
		p.StartDate,
		p.EndDate,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapWriteError(err, "collection period already exists")
	}
	return nil
}

func (r *periodRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrPeriodNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM collection_periods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPeriodNotFound
	}
	return nil
}

func (r *periodRepository) CloseEnded(ctx context.Context, reference time.Time) (int64, error) {
	const query = `
	UPDATE collection_periods
	SET status = 'closed', updated_at = NOW()
	WHERE status = 'open' AND end_date < $1::date
	`
	tag, err := r.pool.Exec(ctx, query, reference.UTC())
	if err != nil {
		return 0, fmt.Errorf("collection_periods: close ended: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPeriod(row scanner) (*domain.CollectionPeriod, error) {
	var (
		p          domain.CollectionPeriod
		periodType string
	)
	if err := row.Scan(
		&p.ID,
		&p.OrganizationName,
		&p.Year,
		&periodType,
		&p.PeriodNumber,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPeriodNotFound
		}
		return nil, err
	}
	p.PeriodType = domain.PeriodType(periodType)
	return &p, nil
}
