package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
	"github.com/fastygo/energy-backoffice/usecase/taxonomy"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

const entitySelection = "indicator_selection"

// State is what the wizard page renders: the draft, its current step and the selectable options.
type State struct {
	Step    string              `json:"step"`
	Draft   *domain.WizardDraft `json:"draft"`
	Options *taxonomy.OptionSet `json:"options"`
}

// NewIndicatorInput creates an indicator and links it under one issue and criterion of the selection.
type NewIndicatorInput struct {
	validation.IndicatorForm
	IssueName    string `json:"issue_name" validate:"required"`
	CriteriaName string `json:"criteria_name" validate:"required"`
}

// UseCase chains the taxonomy steps for one user and hands off the final selection.
type UseCase struct {
	drafts     repository.DraftRepository
	selections repository.SelectionRepository
	options    *taxonomy.Options
	aggregator *taxonomy.Aggregator
	catalog    *taxonomy.Catalog
	journal    usecase.Journal
	logger     *zap.Logger
}

func New(
	drafts repository.DraftRepository,
	selections repository.SelectionRepository,
	options *taxonomy.Options,
	aggregator *taxonomy.Aggregator,
	catalog *taxonomy.Catalog,
	journal usecase.Journal,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		drafts:     drafts,
		selections: selections,
		options:    options,
		aggregator: aggregator,
		catalog:    catalog,
		journal:    journal,
		logger:     logger,
	}
}

func (uc *UseCase) Get(ctx context.Context, actor *domain.Identity) (*State, error) {
	draft, err := uc.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return uc.state(ctx, draft)
}

// UpdateSelection replaces the selection. A level is only kept when every level above it is set,
// and a changed selection drops the indicators picked so far.
func (uc *UseCase) UpdateSelection(ctx context.Context, actor *domain.Identity, sel domain.Selection) (*State, error) {
	draft, err := uc.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	sel = normalize(sel)
	if !sameSelection(draft.Selection, sel) {
		draft.Selection = sel
		draft.SelectedIndicators = nil
	}
	if err := uc.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return uc.state(ctx, draft)
}

// Indicators resolves the indicators for the draft selection against the current catalog.
func (uc *UseCase) Indicators(ctx context.Context, actor *domain.Identity) ([]domain.ResolvedIndicator, error) {
	draft, err := uc.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	return uc.resolve(ctx, draft)
}

// SelectIndicators keeps the names to carry forward. Every name must be offered by the current view.
func (uc *UseCase) SelectIndicators(ctx context.Context, actor *domain.Identity, names []string) (*domain.WizardDraft, error) {
	draft, err := uc.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	records, err := uc.resolve(ctx, draft)
	if err != nil {
		return nil, err
	}

	offered := make(map[string]struct{}, len(records))
	for _, r := range records {
		offered[r.IndicatorName] = struct{}{}
	}
	picked := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := offered[name]; !ok {
			return nil, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("indicator %q is not available for this selection", name))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		picked = append(picked, name)
	}
	draft.SelectedIndicators = picked
	if err := uc.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// CreateIndicator adds an indicator from within the wizard and rotates the draft refresh token
// so clients know to refetch.
func (uc *UseCase) CreateIndicator(ctx context.Context, actor *domain.Identity, input NewIndicatorInput) (*domain.Indicator, error) {
	if errs := validation.Validate(input); !errs.Empty() {
		return nil, &domain.ValidationError{Fields: errs}
	}
	draft, err := uc.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	sel := draft.Selection
	if sel.Sector == "" || len(sel.EnergyTypes) == 0 || len(sel.Standards) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "select a sector, an energy type and a standard first")
	}

	indicator, err := uc.catalog.CreateIndicator(ctx, actor, input.IndicatorForm)
	if err != nil {
		return nil, err
	}
	key := domain.JoinKey{
		SectorName:     sel.Sector,
		EnergyTypeName: sel.EnergyTypes[0],
		StandardName:   sel.Standards[0],
		IssueName:      input.IssueName,
		CriteriaName:   input.CriteriaName,
	}
	if err := uc.catalog.LinkIndicator(ctx, actor, key, indicator.Code, indicator.Unit); err != nil {
		return nil, err
	}

	draft.RefreshToken = uuid.NewString()
	if err := uc.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return indicator, nil
}

// Complete persists the hand-off payload and discards the draft.
func (uc *UseCase) Complete(ctx context.Context, actor *domain.Identity) (*domain.IndicatorSelection, error) {
	draft, err := uc.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !draft.Selection.Complete() {
		return nil, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("wizard incomplete: %s step pending", draft.Step()))
	}
	if len(draft.SelectedIndicators) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "select at least one indicator")
	}
	if actor.OrganizationName == "" && !actor.IsAdmin() {
		return nil, domain.WrapError(domain.ErrCodeForbidden, "no organization attached to the account", domain.ErrForbidden)
	}

	selection := &domain.IndicatorSelection{
		OrganizationName: actor.OrganizationName,
		Selection:        draft.Selection,
		IndicatorNames:   draft.SelectedIndicators,
		CreatedBy:        actor.Email,
	}
	if err := uc.selections.Save(ctx, selection); err != nil {
		return nil, err
	}
	if err := uc.drafts.Delete(ctx, actor.Email); err != nil {
		uc.logger.Warn("failed to discard wizard draft", zap.String("email", actor.Email), zap.Error(err))
	}
	usecase.RecordChange(ctx, uc.journal, uc.logger, actor, usecase.Change{
		Entity: entitySelection, Action: domain.ActionCreate, Key: selection.ID, Payload: selection,
	})
	return selection, nil
}

func (uc *UseCase) Reset(ctx context.Context, actor *domain.Identity) error {
	if actor == nil {
		return domain.ErrNotAuthenticated
	}
	return uc.drafts.Delete(ctx, actor.Email)
}

func (uc *UseCase) ListSelections(ctx context.Context, actor *domain.Identity, organization string) ([]domain.IndicatorSelection, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !actor.IsAdmin() {
		organization = actor.OrganizationName
		if organization == "" {
			return []domain.IndicatorSelection{}, nil
		}
	}
	list, err := uc.selections.ListByOrganization(ctx, organization)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.IndicatorSelection{}
	}
	return list, nil
}

func (uc *UseCase) load(ctx context.Context, actor *domain.Identity) (*domain.WizardDraft, error) {
	if actor == nil {
		return nil, domain.ErrNotAuthenticated
	}
	draft, err := uc.drafts.Get(ctx, actor.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrDraftNotFound) {
			return nil, err
		}
		draft = &domain.WizardDraft{
			Email:            actor.Email,
			OrganizationName: actor.OrganizationName,
			RefreshToken:     uuid.NewString(),
		}
	}
	return draft, nil
}

// resolve recomputes the view on every call. The catalog can change under any draft, so the
// records are never stored with it.
func (uc *UseCase) resolve(ctx context.Context, draft *domain.WizardDraft) ([]domain.ResolvedIndicator, error) {
	var view domain.IndicatorView
	if _, err := uc.aggregator.Refresh(ctx, &view, draft.Selection, draft.RefreshToken); err != nil {
		return nil, err
	}
	if view.Records == nil {
		return []domain.ResolvedIndicator{}, nil
	}
	return view.Records, nil
}

func (uc *UseCase) state(ctx context.Context, draft *domain.WizardDraft) (*State, error) {
	opts, err := uc.options.Load(ctx, draft.Selection)
	if err != nil {
		return nil, err
	}
	return &State{Step: draft.Step(), Draft: draft, Options: opts}, nil
}

func normalize(sel domain.Selection) domain.Selection {
	sel.Sector = strings.TrimSpace(sel.Sector)
	sel.EnergyTypes = clean(sel.EnergyTypes)
	sel.Standards = clean(sel.Standards)
	sel.Issues = clean(sel.Issues)
	sel.Criteria = clean(sel.Criteria)

	switch {
	case sel.Sector == "":
		sel.EnergyTypes, sel.Standards, sel.Issues, sel.Criteria = nil, nil, nil, nil
	case len(sel.EnergyTypes) == 0:
		sel.Standards, sel.Issues, sel.Criteria = nil, nil, nil
	case len(sel.Standards) == 0:
		sel.Issues, sel.Criteria = nil, nil
	case len(sel.Issues) == 0:
		sel.Criteria = nil
	}
	return sel
}

func clean(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameSelection(a, b domain.Selection) bool {
	return a.Sector == b.Sector &&
		equal(a.EnergyTypes, b.EnergyTypes) &&
		equal(a.Standards, b.Standards) &&
		equal(a.Issues, b.Issues) &&
		equal(a.Criteria, b.Criteria)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
