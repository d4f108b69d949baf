package profile

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

type fakeUsers struct {
	repository.UserRepository
	items map[string]domain.User
}

func (f *fakeUsers) Get(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.items[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Upsert(_ context.Context, u *domain.User) error {
	f.items[u.Email] = *u
	return nil
}

type fakeProfiles struct {
	items map[string]domain.Profile
}

func (f *fakeProfiles) Get(_ context.Context, email string) (*domain.Profile, error) {
	p, ok := f.items[email]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *domain.Profile) error {
	f.items[p.Email] = *p
	return nil
}

type recordingJournal struct {
	entries []domain.LogEntry
}

func (j *recordingJournal) Record(_ context.Context, e domain.LogEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func TestGetProfile(t *testing.T) {
	users := &fakeUsers{items: map[string]domain.User{"c@acme.fr": {Email: "c@acme.fr", FullName: "Claire"}}}
	profiles := &fakeProfiles{items: map[string]domain.Profile{
		"c@acme.fr": {Email: "c@acme.fr", Role: domain.RoleContributeur, OrganizationName: "Acme"},
	}}
	uc := New(users, profiles, nil, nil)
	ctx := context.Background()

	m, err := uc.GetProfile(ctx, &domain.Identity{Email: "c@acme.fr"})
	require.NoError(t, err)
	assert.Equal(t, "Claire", m.FullName)
	assert.Equal(t, domain.RoleContributeur, m.Profile.Role)

	m, err = uc.GetProfile(ctx, &domain.Identity{Email: "new@acme.fr"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, m.Profile.Role)

	_, err = uc.GetProfile(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestUpdateProfile(t *testing.T) {
	users := &fakeUsers{items: map[string]domain.User{}}
	journal := &recordingJournal{}
	uc := New(users, &fakeProfiles{items: map[string]domain.Profile{}}, journal, nil)
	actor := &domain.Identity{Email: "c@acme.fr", OrganizationName: "Acme"}

	_, err := uc.UpdateProfile(context.Background(), actor, validation.ProfileForm{})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Le nom complet est requis", verr.Fields["full_name"])

	user, err := uc.UpdateProfile(context.Background(), actor, validation.ProfileForm{FullName: " Claire Dubois ", Phone: "0102"})
	require.NoError(t, err)
	assert.Equal(t, "Claire Dubois", user.FullName)
	assert.Equal(t, "0102", users.items["c@acme.fr"].Phone)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, "Acme", journal.entries[0].OrganizationName)
}
