package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

type fakeAccounts struct {
	accounts  map[string]bool
	confirmed map[string]bool
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: map[string]bool{}, confirmed: map[string]bool{}}
}

func (f *fakeAccounts) SignUp(_ context.Context, email, _ string) (*domain.Credential, error) {
	if f.accounts[email] {
		return nil, domain.ErrEmailTaken
	}
	f.accounts[email] = true
	return &domain.Credential{Email: email}, nil
}

func (f *fakeAccounts) ConfirmEmail(_ context.Context, email string) error {
	f.confirmed[email] = true
	return nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, email string) error {
	delete(f.accounts, email)
	delete(f.confirmed, email)
	return nil
}

type fakeDirectory struct {
	users    map[string]domain.User
	profiles map[string]domain.Profile
	saveErr  error
	filters  []repository.MemberFilter
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]domain.User{}, profiles: map[string]domain.Profile{}}
}

func (f *fakeDirectory) Get(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeDirectory) Upsert(_ context.Context, u *domain.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.users[u.Email] = *u
	return nil
}

func (f *fakeDirectory) ListMembers(_ context.Context, filter repository.MemberFilter) ([]domain.Member, error) {
	f.filters = append(f.filters, filter)
	var out []domain.Member
	for email, p := range f.profiles {
		if filter.OrganizationName != "" && p.OrganizationName != filter.OrganizationName {
			continue
		}
		out = append(out, domain.Member{User: f.users[email], Profile: p})
	}
	return out, nil
}

func (f *fakeDirectory) Delete(_ context.Context, email string) error {
	delete(f.users, email)
	delete(f.profiles, email)
	return nil
}

// profileStore adapts the directory to the profile repository port.
type profileStore struct{ dir *fakeDirectory }

func (p profileStore) Get(_ context.Context, email string) (*domain.Profile, error) {
	prof, ok := p.dir.profiles[email]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &prof, nil
}

func (p profileStore) Upsert(_ context.Context, prof *domain.Profile) error {
	p.dir.profiles[prof.Email] = *prof
	return nil
}

var (
	admin       = &domain.Identity{Email: "root@site.fr", Role: domain.RoleAdmin}
	clientAdmin = &domain.Identity{Email: "boss@acme.fr", Role: domain.RoleAdminClient, OrganizationName: "Acme"}
)

func newUseCase() (*UseCase, *fakeAccounts, *fakeDirectory) {
	accounts := newFakeAccounts()
	dir := newFakeDirectory()
	return New(accounts, dir, profileStore{dir}, nil, nil), accounts, dir
}

func form(email string, role domain.Role, org string) validation.UserForm {
	return validation.UserForm{
		Email: email, FullName: "Jeanne Martin", Role: string(role), OrganizationName: org, Password: "Secret123",
	}
}

func TestCreateProvisionsConfirmedAccount(t *testing.T) {
	uc, accounts, dir := newUseCase()
	ctx := context.Background()

	member, err := uc.Create(ctx, admin, form(" Jeanne@Acme.fr ", domain.RoleValidateur, "Acme"))
	require.NoError(t, err)
	assert.Equal(t, "jeanne@acme.fr", member.Email)
	assert.True(t, accounts.confirmed["jeanne@acme.fr"])
	assert.Equal(t, domain.RoleValidateur, dir.profiles["jeanne@acme.fr"].Role)
	assert.Equal(t, "Jeanne Martin", dir.users["jeanne@acme.fr"].FullName)

	_, err = uc.Create(ctx, admin, form("jeanne@acme.fr", domain.RoleGuest, "Acme"))
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	noPassword := form("paul@acme.fr", domain.RoleGuest, "Acme")
	noPassword.Password = ""
	_, err = uc.Create(ctx, admin, noPassword)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "password")
}

func TestCreateRollsBackAccountOnStoreFailure(t *testing.T) {
	uc, accounts, dir := newUseCase()
	dir.saveErr = errors.New("db down")

	_, err := uc.Create(context.Background(), admin, form("paul@acme.fr", domain.RoleGuest, "Acme"))
	require.Error(t, err)
	assert.False(t, accounts.accounts["paul@acme.fr"])
}

func TestClientAdminIsScoped(t *testing.T) {
	uc, _, dir := newUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, clientAdmin, form("a@acme.fr", domain.RoleAdmin, ""))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Create(ctx, clientAdmin, form("a@acme.fr", domain.RoleContributeur, "Globex"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	member, err := uc.Create(ctx, clientAdmin, form("a@acme.fr", domain.RoleContributeur, ""))
	require.NoError(t, err)
	assert.Equal(t, "Acme", member.Profile.OrganizationName)

	dir.profiles["x@globex.fr"] = domain.Profile{Email: "x@globex.fr", Role: domain.RoleGuest, OrganizationName: "Globex"}
	_, err = uc.Update(ctx, clientAdmin, "x@globex.fr", form("", domain.RoleGuest, ""))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(ctx, clientAdmin, "x@globex.fr"), domain.ErrForbidden)

	_, err = uc.List(ctx, clientAdmin, repository.MemberFilter{OrganizationName: "Globex"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", dir.filters[len(dir.filters)-1].OrganizationName)

	_, err = uc.List(ctx, &domain.Identity{Email: "c@acme.fr", Role: domain.RoleContributeur, OrganizationName: "Acme"},
		repository.MemberFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateKeepsOriginalRoleAndDeleteRemovesAccount(t *testing.T) {
	uc, accounts, dir := newUseCase()
	ctx := context.Background()

	_, err := uc.Create(ctx, admin, form("boss@globex.fr", domain.RoleAdminClient, "Globex"))
	require.NoError(t, err)
	p := dir.profiles["boss@globex.fr"]
	p.OriginalRole = domain.RoleAdmin
	dir.profiles["boss@globex.fr"] = p

	updated, err := uc.Update(ctx, admin, "boss@globex.fr", form("ignored@x.fr", domain.RoleValidateur, "Globex"))
	require.NoError(t, err)
	assert.Equal(t, "boss@globex.fr", updated.Email)
	assert.Equal(t, domain.RoleAdmin, updated.Profile.OriginalRole)

	assert.True(t, domain.IsDomainError(uc.Delete(ctx, admin, admin.Email), domain.ErrCodeInvalid))
	require.NoError(t, uc.Delete(ctx, admin, "boss@globex.fr"))
	assert.False(t, accounts.accounts["boss@globex.fr"])
	_, ok := dir.users["boss@globex.fr"]
	assert.False(t, ok)
}
