package repository

import (
	"context"

	"github.com/fastygo/energy-backoffice/domain"
)

type CredentialRepository interface {
	Get(ctx context.Context, email string) (*domain.Credential, error)
	Create(ctx context.Context, credential *domain.Credential) error
	TouchSignIn(ctx context.Context, email string) error
	Confirm(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}

type ProfileRepository interface {
	Get(ctx context.Context, email string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type MemberFilter struct {
	OrganizationName string
	Role             string
	Limit            int
	Offset           int
}

type UserRepository interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// ListMembers joins users with profiles.
	ListMembers(ctx context.Context, filter MemberFilter) ([]domain.Member, error)
	// Delete removes the users and profiles rows of the account.
	Delete(ctx context.Context, email string) error
}
