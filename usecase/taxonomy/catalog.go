package taxonomy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
	"github.com/fastygo/energy-backoffice/usecase/validation"
)

const (
	entityIndicator = "indicator"
	entityJoinRow   = "join_row"
)

// Catalog manages indicators and their links to the join table.
type Catalog struct {
	indicators repository.IndicatorRepository
	taxonomy   repository.TaxonomyRepository
	journal    usecase.Journal
	logger     *zap.Logger
}

func NewCatalog(indicators repository.IndicatorRepository, taxonomy repository.TaxonomyRepository, journal usecase.Journal, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		indicators: indicators,
		taxonomy:   taxonomy,
		journal:    journal,
		logger:     logger,
	}
}

func (c *Catalog) ListIndicators(ctx context.Context) ([]domain.Indicator, error) {
	list, err := c.indicators.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Indicator{}
	}
	return list, nil
}

func (c *Catalog) GetIndicator(ctx context.Context, code string) (*domain.Indicator, error) {
	return c.indicators.Get(ctx, code)
}

func (c *Catalog) CreateIndicator(ctx context.Context, actor *domain.Identity, form validation.IndicatorForm) (*domain.Indicator, error) {
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	ind := indicatorFromForm(form)
	if err := c.indicators.Create(ctx, ind); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, c.journal, c.logger, actor, usecase.Change{
		Entity: entityIndicator, Action: domain.ActionCreate, Key: ind.Code, Payload: ind,
	})
	return ind, nil
}

func (c *Catalog) UpdateIndicator(ctx context.Context, actor *domain.Identity, code string, form validation.IndicatorForm) (*domain.Indicator, error) {
	if form.Code == "" {
		form.Code = code
	}
	if form.Code != code {
		return nil, domain.NewError(domain.ErrCodeInvalid, "indicator code cannot change")
	}
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	ind := indicatorFromForm(form)
	if err := c.indicators.Update(ctx, ind); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, c.journal, c.logger, actor, usecase.Change{
		Entity: entityIndicator, Action: domain.ActionUpdate, Key: ind.Code, Payload: ind,
	})
	return ind, nil
}

// DeleteIndicator unlinks the code from every join row before removing the indicator.
func (c *Catalog) DeleteIndicator(ctx context.Context, actor *domain.Identity, code string) error {
	if _, err := c.indicators.Get(ctx, code); err != nil {
		return err
	}
	if err := c.taxonomy.UnlinkIndicator(ctx, code); err != nil {
		return err
	}
	if err := c.indicators.Delete(ctx, code); err != nil {
		return err
	}
	usecase.RecordChange(ctx, c.journal, c.logger, actor, usecase.Change{
		Entity: entityIndicator, Action: domain.ActionDelete, Key: code,
	})
	return nil
}

// UpsertJoinRow writes a whole join row atomically on its five-column key.
func (c *Catalog) UpsertJoinRow(ctx context.Context, actor *domain.Identity, form validation.JoinRowForm) (*domain.JoinRecord, error) {
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	record := &domain.JoinRecord{
		JoinKey: domain.JoinKey{
			SectorName:     strings.TrimSpace(form.SectorName),
			EnergyTypeName: strings.TrimSpace(form.EnergyTypeName),
			StandardName:   strings.TrimSpace(form.StandardName),
			IssueName:      strings.TrimSpace(form.IssueName),
			CriteriaName:   strings.TrimSpace(form.CriteriaName),
		},
		IndicatorCodes: dedupe(form.IndicatorCodes),
		Unit:           strings.TrimSpace(form.Unit),
	}
	if err := c.taxonomy.UpsertJoinRecord(ctx, record); err != nil {
		return nil, err
	}
	usecase.RecordChange(ctx, c.journal, c.logger, actor, usecase.Change{
		Entity: entityJoinRow, Action: domain.ActionUpdate, Key: joinKeyString(record.JoinKey), Payload: record,
	})
	return record, nil
}

// LinkIndicator attaches code to the join row at key, creating the row if needed.
func (c *Catalog) LinkIndicator(ctx context.Context, actor *domain.Identity, key domain.JoinKey, code, unit string) error {
	if code == "" || key.SectorName == "" || key.EnergyTypeName == "" || key.StandardName == "" ||
		key.IssueName == "" || key.CriteriaName == "" {
		return domain.ErrInvalidPayload
	}
	if err := c.taxonomy.LinkIndicator(ctx, key, code, unit); err != nil {
		return err
	}
	usecase.RecordChange(ctx, c.journal, c.logger, actor, usecase.Change{
		Entity: entityJoinRow, Action: domain.ActionUpdate, Key: joinKeyString(key),
		Payload: map[string]string{"linked": code},
	})
	return nil
}

func indicatorFromForm(form validation.IndicatorForm) *domain.Indicator {
	return &domain.Indicator{
		Code:        strings.TrimSpace(form.Code),
		Name:        strings.TrimSpace(form.Name),
		Description: form.Description,
		Unit:        form.Unit,
		Formule:     form.Formule,
		Frequency:   form.Frequency,
	}
}

func joinKeyString(k domain.JoinKey) string {
	return strings.Join([]string{k.SectorName, k.EnergyTypeName, k.StandardName, k.IssueName, k.CriteriaName}, "/")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
