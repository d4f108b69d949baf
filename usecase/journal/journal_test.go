package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

type fakeLogs struct {
	filter repository.LogFilter
}

func (f *fakeLogs) InsertBatch(context.Context, []domain.LogEntry) error { return nil }

func (f *fakeLogs) List(_ context.Context, filter repository.LogFilter) ([]domain.LogEntry, error) {
	f.filter = filter
	return nil, nil
}

func TestListScopesByRole(t *testing.T) {
	logs := &fakeLogs{}
	uc := New(logs, nil)
	ctx := context.Background()

	entries, err := uc.List(ctx, &domain.Identity{Role: domain.RoleAdmin}, repository.LogFilter{OrganizationName: "Globex"})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, "Globex", logs.filter.OrganizationName)
	assert.Equal(t, defaultLimit, logs.filter.Limit)

	_, err = uc.List(ctx, &domain.Identity{Role: domain.RoleAdminClient, OrganizationName: "Acme"},
		repository.LogFilter{OrganizationName: "Globex", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "Acme", logs.filter.OrganizationName)
	assert.Equal(t, 5, logs.filter.Limit)

	_, err = uc.List(ctx, &domain.Identity{Role: domain.RoleValidateur, OrganizationName: "Acme"}, repository.LogFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.List(ctx, nil, repository.LogFilter{})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
