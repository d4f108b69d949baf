package period

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

const entityPeriod = "collection_period"

type UseCase struct {
	periods repository.PeriodRepository
	journal usecase.Journal
	logger  *zap.Logger
	now     func() time.Time
}

func New(periods repository.PeriodRepository, journal usecase.Journal, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		periods: periods,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

func (uc *UseCase) List(ctx context.Context, actor *domain.Identity, filter repository.PeriodFilter) ([]domain.CollectionPeriod, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !actor.IsAdmin() {
		if actor.OrganizationName == "" {
			return []domain.CollectionPeriod{}, nil
		}
		filter.OrganizationName = actor.OrganizationName
	}
	periods, err := uc.periods.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if periods == nil {
		periods = []domain.CollectionPeriod{}
	}
	return periods, nil
}

// Upsert creates or rewrites the period on its natural key. Start and end dates are derived
// from the year, type and number.
func (uc *UseCase) Upsert(ctx context.Context, actor *domain.Identity, form validation.PeriodForm) (*domain.CollectionPeriod, error) {
	if actor != nil && actor.Role == domain.RoleAdminClient && form.OrganizationName == "" {
		form.OrganizationName = actor.OrganizationName
	}
	if err := canManage(actor, form.OrganizationName); err != nil {
		return nil, err
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}

	p := &domain.CollectionPeriod{
		OrganizationName: form.OrganizationName,
		Year:             form.Year,
		PeriodType:       domain.PeriodType(form.PeriodType),
		PeriodNumber:     form.PeriodNumber,
		Status:           form.Status,
	}
	start, end, err := p.Bounds()
	if err != nil {
		return nil, err
	}
	p.StartDate, p.EndDate = start, end
	if p.Status == "" {
		p.Status = domain.PeriodStatusOpen
		if p.IsOver(uc.now()) {
			p.Status = domain.PeriodStatusClosed
		}
	}

	if err := uc.periods.Upsert(ctx, p); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: p.OrganizationName, Entity: entityPeriod, Action: domain.ActionUpdate, Key: p.Key(), Payload: p,
	})
	return p, nil
}

func (uc *UseCase) Delete(ctx context.Context, actor *domain.Identity, id string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrPeriodNotFound
	}
	p, err := uc.periods.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := canManage(actor, p.OrganizationName); err != nil {
		return err
	}
	if err := uc.periods.Delete(ctx, id); err != nil {
		return err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: p.OrganizationName, Entity: entityPeriod, Action: domain.ActionDelete, Key: p.Key(),
	})
	return nil
}

// CloseEnded closes every open period whose end date has passed. It runs from the scheduler.
func (uc *UseCase) CloseEnded(ctx context.Context) (int64, error) {
	n, err := uc.periods.CloseEnded(ctx, uc.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.logger.Info("collection periods closed", zap.Int64("count", n))
	}
	return n, nil
}

func canManage(actor *domain.Identity, organization string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleAdminClient && organization != "" && actor.OrganizationName == organization {
		return nil
	}
	return domain.ErrForbidden
}
