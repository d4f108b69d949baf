package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type logRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository returns the modification_logs store.
func NewLogRepository(pool *pgxpool.Pool) repository.LogRepository {
	return &logRepository{pool: pool}
}

func (r *logRepository) InsertBatch(ctx context.Context, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
	INSERT INTO modification_logs (id, organization_name, actor_email, entity, action, entity_key, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, e := range entries {
		var payload interface{}
		if len(e.Payload) > 0 {
			payload = []byte(e.Payload)
		}
		batch.Queue(query, e.ID, nullString(e.OrganizationName), e.ActorEmail, e.Entity, e.Action,
			e.EntityKey, payload, e.CreatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("modification_logs: insert batch: %w", err)
		}
	}
	return nil
}

func (r *logRepository) List(ctx context.Context, filter repository.LogFilter) ([]domain.LogEntry, error) {
	const query = `
	SELECT id, organization_name, actor_email, entity, action, entity_key, payload, created_at
	FROM modification_logs
	WHERE ($1 = '' OR organization_name = $1)
	  AND ($2 = '' OR entity = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.OrganizationName, filter.Entity, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("modification_logs: list: %w", err)
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		var (
			e       domain.LogEntry
			org     *string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &org, &e.ActorEmail, &e.Entity, &e.Action, &e.EntityKey, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OrganizationName = derefString(org)
		if len(payload) > 0 {
			e.Payload = append([]byte(nil), payload...)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
