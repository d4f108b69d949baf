package journal

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

const defaultLimit = 50

// UseCase reads the modification log.
type UseCase struct {
	logs   repository.LogRepository
	logger *zap.Logger
}

func New(logs repository.LogRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{logs: logs, logger: logger}
}

// List returns entries newest first. admin_client only sees its own organization.
func (uc *UseCase) List(ctx context.Context, actor *domain.Identity, filter repository.LogFilter) ([]domain.LogEntry, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == domain.RoleAdminClient && actor.OrganizationName != "":
		filter.OrganizationName = actor.OrganizationName
	default:
		return nil, domain.ErrForbidden
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	entries, err := uc.logs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return entries, nil
}
