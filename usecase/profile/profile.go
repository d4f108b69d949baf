package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

const entityProfile = "profile"

// UseCase serves the signed-in user's own contact details and role assignment.
type UseCase struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	journal  usecase.Journal
	logger   *zap.Logger
}

func New(users repository.UserRepository, profiles repository.ProfileRepository, journal usecase.Journal, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		profiles: profiles,
		journal:  journal,
		logger:   logger,
	}
}

// GetProfile returns the users row joined with the profile. A missing profile reads as guest.
func (uc *UseCase) GetProfile(ctx context.Context, actor *domain.Identity) (*domain.Member, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	member := &domain.Member{User: domain.User{Email: actor.Email}}
	user, err := uc.users.Get(ctx, actor.Email)
	switch {
	case err == nil:
		member.User = *user
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	profile, err := uc.profiles.Get(ctx, actor.Email)
	switch {
	case err == nil:
		member.Profile = *profile
	case errors.Is(err, domain.ErrProfileNotFound):
		member.Profile = domain.Profile{Email: actor.Email, Role: domain.LowestRole}
	default:
		return nil, err
	}
	return member, nil
}

// UpdateProfile only touches the users row; role and scoping stay with administration.
func (uc *UseCase) UpdateProfile(ctx context.Context, actor *domain.Identity, form validation.ProfileForm) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:    actor.Email,
		FullName: strings.TrimSpace(form.FullName),
		Phone:    form.Phone,
		Position: form.Position,
	}
	if err := uc.users.Upsert(ctx, user); err != nil {
		uc.logger.Error("failed to update profile", zap.String("email", actor.Email), zap.Error(err))
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Entity: entityProfile, Action: domain.ActionUpdate, Key: actor.Email, Payload: user,
	})
	return user, nil
}
