package repository

import (
	"context"

	"github.com/fastygo/energy-backoffice/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
	// DeleteByEmail revokes every session opened for email.
	DeleteByEmail(ctx context.Context, email string) error
}

// DraftRepository keeps one wizard draft per user.
type DraftRepository interface {
	Get(ctx context.Context, email string) (*domain.WizardDraft, error)
	Save(ctx context.Context, draft *domain.WizardDraft) error
	Delete(ctx context.Context, email string) error
}
