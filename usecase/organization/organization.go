package organization

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

const entityOrganization = "organization"

type UseCase struct {
	organizations repository.OrganizationRepository
	journal       usecase.Journal
	logger        *zap.Logger
}

func New(organizations repository.OrganizationRepository, journal usecase.Journal, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		organizations: organizations,
		journal:       journal,
		logger:        logger,
	}
}

// List returns every organization to admins and the caller's own organization to everyone else.
func (uc *UseCase) List(ctx context.Context, actor *domain.Identity) ([]domain.Organization, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !actor.IsAdmin() {
		if actor.OrganizationName == "" {
			return []domain.Organization{}, nil
		}
		org, err := uc.organizations.Get(ctx, actor.OrganizationName)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return []domain.Organization{}, nil
			}
			return nil, err
		}
		return []domain.Organization{*org}, nil
	}
	orgs, err := uc.organizations.List(ctx)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	return orgs, nil
}

func (uc *UseCase) Get(ctx context.Context, actor *domain.Identity, name string) (*domain.Organization, error) {
	if err := canRead(actor, name); err != nil {
		return nil, err
	}
	return uc.organizations.Get(ctx, name)
}

func (uc *UseCase) Create(ctx context.Context, actor *domain.Identity, form validation.OrganizationForm) (*domain.Organization, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	org := organizationFromForm(form)
	if err := uc.organizations.Create(ctx, org); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: org.Name, Entity: entityOrganization, Action: domain.ActionCreate, Key: org.Name, Payload: org,
	})
	return org, nil
}

// Update may rename the organization; the new name comes from the form.
func (uc *UseCase) Update(ctx context.Context, actor *domain.Identity, name string, form validation.OrganizationForm) (*domain.Organization, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(form.Name) == "" {
		form.Name = name
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	org := organizationFromForm(form)
	if err := uc.organizations.Update(ctx, name, org); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: org.Name, Entity: entityOrganization, Action: domain.ActionUpdate, Key: name, Payload: org,
	})
	return org, nil
}

func (uc *UseCase) Delete(ctx context.Context, actor *domain.Identity, name string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := uc.organizations.Delete(ctx, name); err != nil {
		return err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: name, Entity: entityOrganization, Action: domain.ActionDelete, Key: name,
	})
	return nil
}

func (uc *UseCase) ListUnits(ctx context.Context, actor *domain.Identity, organization string, level domain.UnitLevel) ([]domain.OrgUnit, error) {
	if err := canRead(actor, organization); err != nil {
		return nil, err
	}
	units, err := uc.organizations.ListUnits(ctx, level, organization)
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []domain.OrgUnit{}
	}
	return units, nil
}

func (uc *UseCase) CreateUnit(ctx context.Context, actor *domain.Identity, organization string, level domain.UnitLevel, form validation.UnitForm) (*domain.OrgUnit, error) {
	if err := canManageUnits(actor, organization); err != nil {
		return nil, err
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	unit := unitFromForm(organization, level, form)
	if err := uc.organizations.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: organization, Entity: string(level), Action: domain.ActionCreate, Key: unit.Name, Payload: unit,
	})
	return unit, nil
}

func (uc *UseCase) UpdateUnit(ctx context.Context, actor *domain.Identity, organization string, level domain.UnitLevel, name string, form validation.UnitForm) (*domain.OrgUnit, error) {
	if err := canManageUnits(actor, organization); err != nil {
		return nil, err
	}
	if strings.TrimSpace(form.Name) == "" {
		form.Name = name
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	unit := unitFromForm(organization, level, form)
	if err := uc.organizations.UpdateUnit(ctx, name, unit); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: organization, Entity: string(level), Action: domain.ActionUpdate, Key: name, Payload: unit,
	})
	return unit, nil
}

func (uc *UseCase) DeleteUnit(ctx context.Context, actor *domain.Identity, organization string, level domain.UnitLevel, name string) error {
	if err := canManageUnits(actor, organization); err != nil {
		return err
	}
	if err := uc.organizations.DeleteUnit(ctx, level, organization, name); err != nil {
		return err
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Organization: organization, Entity: string(level), Action: domain.ActionDelete, Key: name,
	})
	return nil
}

func canRead(actor *domain.Identity, organization string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if !actor.CanAccessOrganization(organization) {
		return domain.ErrForbidden
	}
	return nil
}

// canManageUnits lets admins edit any hierarchy and admin_client edit its own.
func canManageUnits(actor *domain.Identity, organization string) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleAdminClient && actor.OrganizationName == organization && organization != "" {
		return nil
	}
	return domain.ErrForbidden
}

func organizationFromForm(form validation.OrganizationForm) *domain.Organization {
	return &domain.Organization{
		Name:        strings.TrimSpace(form.Name),
		Description: form.Description,
		Address:     form.Address,
		City:        form.City,
		Country:     form.Country,
	}
}

func unitFromForm(organization string, level domain.UnitLevel, form validation.UnitForm) *domain.OrgUnit {
	unit := &domain.OrgUnit{
		Level:            level,
		Name:             strings.TrimSpace(form.Name),
		OrganizationName: organization,
		Address:          form.Address,
		City:             form.City,
	}
	switch level {
	case domain.LevelFiliale:
		unit.FiliereName = form.FiliereName
	case domain.LevelSite:
		unit.FiliereName = form.FiliereName
		unit.FilialeName = form.FilialeName
	}
	return unit
}
