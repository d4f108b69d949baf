package repository

import (
	"context"

	"github.com/fastygo/energy-backoffice/domain"
)

type LogFilter struct {
	OrganizationName string
	Entity           string
	Limit            int
	Offset           int
}

type LogRepository interface {
	// InsertBatch is idempotent on entry id.
	InsertBatch(ctx context.Context, entries []domain.LogEntry) error
	List(ctx context.Context, filter LogFilter) ([]domain.LogEntry, error)
}
