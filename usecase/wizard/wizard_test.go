package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/usecase/taxonomy"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

type fakeDrafts struct {
	items map[string]domain.WizardDraft
	saves int
}

func (f *fakeDrafts) Get(_ context.Context, email string) (*domain.WizardDraft, error) {
	d, ok := f.items[email]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &d, nil
}

func (f *fakeDrafts) Save(_ context.Context, d *domain.WizardDraft) error {
	f.saves++
	f.items[d.Email] = *d
	return nil
}

func (f *fakeDrafts) Delete(_ context.Context, email string) error {
	delete(f.items, email)
	return nil
}

type fakeSelections struct {
	saved []domain.IndicatorSelection
}

func (f *fakeSelections) Save(_ context.Context, s *domain.IndicatorSelection) error {
	s.ID = "sel-1"
	f.saved = append(f.saved, *s)
	return nil
}

func (f *fakeSelections) ListByOrganization(_ context.Context, org string) ([]domain.IndicatorSelection, error) {
	var out []domain.IndicatorSelection
	for _, s := range f.saved {
		if org == "" || s.OrganizationName == org {
			out = append(out, s)
		}
	}
	return out, nil
}

// catalogStore is a small in-memory taxonomy and indicator store.
type catalogStore struct {
	rows       []domain.JoinRecord
	indicators map[string]domain.Indicator
	rowCalls   int
}

func (s *catalogStore) FindJoinRows(_ context.Context, sector, energy, standard string) ([]domain.JoinRow, error) {
	s.rowCalls++
	var out []domain.JoinRow
	for _, r := range s.rows {
		if r.SectorName == sector && r.EnergyTypeName == energy && r.StandardName == standard {
			unit := r.Unit
			out = append(out, domain.JoinRow{CriteriaName: r.CriteriaName, IndicatorCodes: r.IndicatorCodes, Unit: &unit})
		}
	}
	return out, nil
}

func (s *catalogStore) FindByCodes(_ context.Context, codes []string) ([]domain.IndicatorRef, error) {
	var out []domain.IndicatorRef
	for _, c := range codes {
		if ind, ok := s.indicators[c]; ok {
			out = append(out, domain.IndicatorRef{Code: c, Name: ind.Name})
		}
	}
	return out, nil
}

func (s *catalogStore) ListSectors(context.Context) ([]string, error) { return []string{"Industrie"}, nil }
func (s *catalogStore) ListEnergyTypes(context.Context, string) ([]string, error) {
	return []string{"Électricité"}, nil
}
func (s *catalogStore) ListStandards(context.Context, string, []string) ([]string, error) {
	return []string{"ISO 50001"}, nil
}
func (s *catalogStore) ListIssues(context.Context, string, []string, []string) ([]string, error) {
	return []string{"Performance"}, nil
}
func (s *catalogStore) ListCriteria(context.Context, string, []string, []string, []string) ([]string, error) {
	return []string{"Mesure"}, nil
}
func (s *catalogStore) UpsertJoinRecord(context.Context, *domain.JoinRecord) error { return nil }

func (s *catalogStore) UnlinkIndicator(_ context.Context, code string) error {
	for i, r := range s.rows {
		kept := r.IndicatorCodes[:0:0]
		for _, c := range r.IndicatorCodes {
			if c != code {
				kept = append(kept, c)
			}
		}
		s.rows[i].IndicatorCodes = kept
	}
	return nil
}

func (s *catalogStore) LinkIndicator(_ context.Context, key domain.JoinKey, code, unit string) error {
	for i, r := range s.rows {
		if r.JoinKey == key {
			s.rows[i].IndicatorCodes = append(s.rows[i].IndicatorCodes, code)
			return nil
		}
	}
	s.rows = append(s.rows, domain.JoinRecord{JoinKey: key, IndicatorCodes: []string{code}, Unit: unit})
	return nil
}

func (s *catalogStore) List(context.Context) ([]domain.Indicator, error) { return nil, nil }
func (s *catalogStore) Get(_ context.Context, code string) (*domain.Indicator, error) {
	ind, ok := s.indicators[code]
	if !ok {
		return nil, domain.ErrIndicatorNotFound
	}
	return &ind, nil
}
func (s *catalogStore) Create(_ context.Context, ind *domain.Indicator) error {
	s.indicators[ind.Code] = *ind
	return nil
}
func (s *catalogStore) Update(_ context.Context, ind *domain.Indicator) error {
	if _, ok := s.indicators[ind.Code]; !ok {
		return domain.ErrIndicatorNotFound
	}
	s.indicators[ind.Code] = *ind
	return nil
}

func (s *catalogStore) Delete(_ context.Context, code string) error {
	delete(s.indicators, code)
	return nil
}

var user = &domain.Identity{Email: "c@acme.fr", Role: domain.RoleContributeur, OrganizationName: "Acme"}

func newWizard() (*UseCase, *fakeDrafts, *fakeSelections, *catalogStore) {
	store := &catalogStore{indicators: map[string]domain.Indicator{
		"I1": {Code: "I1", Name: "Conso totale"},
		"I2": {Code: "I2", Name: "Conso partielle"},
	}}
	key := domain.JoinKey{SectorName: "Industrie", EnergyTypeName: "Électricité", StandardName: "ISO 50001",
		IssueName: "Performance", CriteriaName: "Mesure"}
	store.rows = []domain.JoinRecord{{JoinKey: key, IndicatorCodes: []string{"I1", "I2"}, Unit: "kWh"}}

	drafts := &fakeDrafts{items: map[string]domain.WizardDraft{}}
	selections := &fakeSelections{}
	uc := New(drafts, selections,
		taxonomy.NewOptions(store, nil),
		taxonomy.NewAggregator(store, store, nil, nil),
		taxonomy.NewCatalog(store, store, nil, nil),
		nil, nil)
	return uc, drafts, selections, store
}

func fullSelection() domain.Selection {
	return domain.Selection{
		Sector: "Industrie", EnergyTypes: []string{"Électricité"}, Standards: []string{"ISO 50001"},
		Issues: []string{"Performance"}, Criteria: []string{"Mesure"},
	}
}

func TestWizardStartsAtSector(t *testing.T) {
	uc, _, _, _ := newWizard()
	state, err := uc.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, domain.StepSector, state.Step)
	assert.Equal(t, []string{"Industrie"}, state.Options.Sectors)
	assert.NotEmpty(t, state.Draft.RefreshToken)

	_, err = uc.Get(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestUpdateSelectionEnforcesCascade(t *testing.T) {
	uc, _, _, _ := newWizard()
	sel := fullSelection()
	sel.Standards = nil

	state, err := uc.UpdateSelection(context.Background(), user, sel)
	require.NoError(t, err)
	assert.Equal(t, domain.StepStandards, state.Step)
	assert.Empty(t, state.Draft.Selection.Issues)
	assert.Empty(t, state.Draft.Selection.Criteria)
}

func TestWizardFlow(t *testing.T) {
	ctx := context.Background()
	uc, drafts, selections, store := newWizard()

	state, err := uc.UpdateSelection(ctx, user, fullSelection())
	require.NoError(t, err)
	assert.Equal(t, domain.StepIndicators, state.Step)

	records, err := uc.Indicators(ctx, user)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, store.rowCalls)

	_, err = uc.Indicators(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, store.rowCalls, "every query resolves against the catalog")

	_, err = uc.SelectIndicators(ctx, user, []string{"Inconnu"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	draft, err := uc.SelectIndicators(ctx, user, []string{"Conso totale", "Conso totale"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Conso totale"}, draft.SelectedIndicators)

	before := drafts.items[user.Email].RefreshToken
	ind, err := uc.CreateIndicator(ctx, user, NewIndicatorInput{
		IndicatorForm: validation.IndicatorForm{Code: "I3", Name: "Heures d'audit", Unit: "h"},
		IssueName:     "Performance",
		CriteriaName:  "Mesure",
	})
	require.NoError(t, err)
	assert.Equal(t, "I3", ind.Code)
	assert.NotEqual(t, before, drafts.items[user.Email].RefreshToken)

	records, err = uc.Indicators(ctx, user)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	sel, err := uc.Complete(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Acme", sel.OrganizationName)
	assert.Equal(t, []string{"Conso totale"}, sel.IndicatorNames)
	require.Len(t, selections.saved, 1)
	_, stillThere := drafts.items[user.Email]
	assert.False(t, stillThere)
}

func TestCreateIndicatorNeedsIssueAndCriteria(t *testing.T) {
	uc, _, _, _ := newWizard()
	_, err := uc.CreateIndicator(context.Background(), user, NewIndicatorInput{
		IndicatorForm: validation.IndicatorForm{Code: "I3", Name: "x"},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "issue_name")
	assert.Contains(t, verr.Fields, "criteria_name")
}

func TestCompleteRequiresSelectionAndOrganization(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newWizard()

	_, err := uc.Complete(ctx, user)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	guest := &domain.Identity{Email: "g@acme.fr", Role: domain.RoleGuest}
	_, err = uc.UpdateSelection(ctx, guest, fullSelection())
	require.NoError(t, err)
	_, err = uc.SelectIndicators(ctx, guest, []string{"Conso partielle"})
	require.NoError(t, err)
	_, err = uc.Complete(ctx, guest)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestIndicatorsFollowCatalogEdits(t *testing.T) {
	ctx := context.Background()
	uc, drafts, _, _ := newWizard()
	admin := &domain.Identity{Email: "a@acme.fr", Role: domain.RoleAdmin}

	_, err := uc.UpdateSelection(ctx, user, fullSelection())
	require.NoError(t, err)
	records, err := uc.Indicators(ctx, user)
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = uc.catalog.UpdateIndicator(ctx, admin, "I1", validation.IndicatorForm{Code: "I1", Name: "Conso globale"})
	require.NoError(t, err)
	require.NoError(t, uc.catalog.DeleteIndicator(ctx, admin, "I2"))

	records, err = uc.Indicators(ctx, user)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Conso globale", records[0].IndicatorName)

	_, err = uc.SelectIndicators(ctx, user, []string{"Conso partielle"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	_, err = uc.SelectIndicators(ctx, user, []string{"Conso totale"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	draft, err := uc.SelectIndicators(ctx, user, []string{"Conso globale"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Conso globale"}, draft.SelectedIndicators)

	raw, err := json.Marshal(drafts.items[user.Email])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "records")
}
