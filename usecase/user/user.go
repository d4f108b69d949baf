package user

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

const entityUser = "user"

// Accounts is the slice of the auth provider that user administration needs.
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (*domain.Credential, error)
	ConfirmEmail(ctx context.Context, email string) error
	DeleteAccount(ctx context.Context, email string) error
}

// roles an admin_client may hand out inside its organization.
var clientAssignable = map[domain.Role]bool{
	domain.RoleGuest:        true,
	domain.RoleContributeur: true,
	domain.RoleValidateur:   true,
}

type UseCase struct {
	accounts Accounts
	users    repository.UserRepository
	profiles repository.ProfileRepository
	journal  usecase.Journal
	logger   *zap.Logger
}

func New(accounts Accounts, users repository.UserRepository, profiles repository.ProfileRepository, journal usecase.Journal, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		accounts: accounts,
		users:    users,
		profiles: profiles,
		journal:  journal,
		logger:   logger,
	}
}

func (uc *UseCase) List(ctx context.Context, actor *domain.Identity, filter repository.MemberFilter) ([]domain.Member, error) {
	if err := canAdminister(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		filter.OrganizationName = actor.OrganizationName
	}
	members, err := uc.users.ListMembers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []domain.Member{}
	}
	return members, nil
}

// Create provisions a confirmed account together with its users and profiles rows.
func (uc *UseCase) Create(ctx context.Context, actor *domain.Identity, form validation.UserForm) (*domain.Member, error) {
	if err := canAdminister(actor); err != nil {
		return nil, err
	}
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	if form.Password == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"password": "Le mot de passe est requis"}}
	}
	if err := scopeForm(actor, &form); err != nil {
		return nil, err
	}

	if _, err := uc.accounts.SignUp(ctx, form.Email, form.Password); err != nil {
		return nil, err
	}
	if err := uc.accounts.ConfirmEmail(ctx, form.Email); err != nil {
		uc.rollback(ctx, form.Email)
		return nil, err
	}

	member := memberFromForm(form, nil)
	if err := uc.save(ctx, member); err != nil {
		uc.rollback(ctx, form.Email)
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: member.Profile.OrganizationName, Entity: entityUser, Action: domain.ActionCreate,
		Key: member.Email, Payload: member,
	})
	return member, nil
}

// Update rewrites contact fields and the role assignment of an existing member. The email is immutable.
func (uc *UseCase) Update(ctx context.Context, actor *domain.Identity, email string, form validation.UserForm) (*domain.Member, error) {
	if err := canAdminister(actor); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	form.Email = email
	form.Password = ""
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	current, err := uc.profiles.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := canTouch(actor, current); err != nil {
		return nil, err
	}
	if err := scopeForm(actor, &form); err != nil {
		return nil, err
	}

	member := memberFromForm(form, current)
	if err := uc.save(ctx, member); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: member.Profile.OrganizationName, Entity: entityUser, Action: domain.ActionUpdate,
		Key: email, Payload: member,
	})
	return member, nil
}

func (uc *UseCase) Delete(ctx context.Context, actor *domain.Identity, email string) error {
	if err := canAdminister(actor); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == actor.Email {
		return domain.NewError(domain.ErrCodeInvalid, "cannot delete your own account")
	}
	current, err := uc.profiles.Get(ctx, email)
	if err != nil {
		return err
	}
	if err := canTouch(actor, current); err != nil {
		return err
	}
	if err := uc.users.Delete(ctx, email); err != nil {
		return err
	}
	if err := uc.accounts.DeleteAccount(ctx, email); err != nil {
		return err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: current.OrganizationName, Entity: entityUser, Action: domain.ActionDelete, Key: email,
	})
	return nil
}

func (uc *UseCase) save(ctx context.Context, member *domain.Member) error {
	if err := uc.users.Upsert(ctx, &member.User); err != nil {
		return err
	}
	return uc.profiles.Upsert(ctx, &member.Profile)
}

func (uc *UseCase) rollback(ctx context.Context, email string) {
	if err := uc.accounts.DeleteAccount(ctx, email); err != nil {
		uc.logger.Error("failed to roll back account creation", zap.String("email", email), zap.Error(err))
	}
}

func canAdminister(actor *domain.Identity) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleAdminClient && actor.OrganizationName != "" {
		return nil
	}
	return domain.ErrForbidden
}

// canTouch rejects admin_client edits of members outside its organization or above its grant.
func canTouch(actor *domain.Identity, target *domain.Profile) error {
	if actor.IsAdmin() {
		return nil
	}
	if target.OrganizationName != actor.OrganizationName || !clientAssignable[target.Role] {
		return domain.ErrForbidden
	}
	return nil
}

// scopeForm pins admin_client writes to its own organization and to the roles it may grant.
func scopeForm(actor *domain.Identity, form *validation.UserForm) error {
	if actor.IsAdmin() {
		return nil
	}
	if !clientAssignable[domain.Role(form.Role)] {
		return domain.WrapError(domain.ErrCodeForbidden, "role cannot be assigned", domain.ErrForbidden)
	}
	if form.OrganizationName == "" {
		form.OrganizationName = actor.OrganizationName
	}
	if form.OrganizationName != actor.OrganizationName {
		return domain.WrapError(domain.ErrCodeForbidden, "organization out of scope", domain.ErrForbidden)
	}
	return nil
}

func memberFromForm(form validation.UserForm, current *domain.Profile) *domain.Member {
	member := &domain.Member{
		User: domain.User{
			Email:    form.Email,
			FullName: strings.TrimSpace(form.FullName),
			Phone:    form.Phone,
			Position: form.Position,
		},
		Profile: domain.Profile{
			Email:             form.Email,
			Role:              domain.Role(form.Role),
			OrganizationName:  form.OrganizationName,
			OrganizationLevel: form.OrganizationLevel,
			FiliereName:       form.FiliereName,
			FilialeName:       form.FilialeName,
			SiteName:          form.SiteName,
		},
	}
	if current != nil {
		member.Profile.OriginalRole = current.OriginalRole
		member.Profile.CreatedAt = current.CreatedAt
	}
	return member
}

