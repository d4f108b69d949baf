package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
)

// Journal abstracts the modification-log buffer so use cases stay storage-agnostic.
type Journal interface {
	Record(ctx context.Context, entry domain.LogEntry) error
}

// Change describes one mutation to record.
type Change struct {
	Organization string
	Entity       string
	Action       string
	Key          string
	Payload      interface{}
}

// RecordChange appends a log entry for actor. The mutation already happened, so failures are only logged.
func RecordChange(ctx context.Context, j Journal, logger *zap.Logger, actor *domain.Identity, change Change) {
	if j == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	entry := domain.LogEntry{
		ID:               uuid.NewString(),
		OrganizationName: change.Organization,
		Entity:           change.Entity,
		Action:           change.Action,
		EntityKey:        change.Key,
	}
	if actor != nil {
		entry.ActorEmail = actor.Email
		if entry.OrganizationName == "" {
			entry.OrganizationName = actor.OrganizationName
		}
	}
	if change.Payload != nil {
		raw, err := json.Marshal(change.Payload)
		if err == nil {
			entry.Payload = raw
		}
	}
	entry.Touch()
	if err := j.Record(ctx, entry); err != nil {
		logger.Warn("failed to record change",
			zap.String("entity", change.Entity),
			zap.String("action", change.Action),
			zap.String("key", change.Key),
			zap.Error(err))
	}
}
