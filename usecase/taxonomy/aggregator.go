package taxonomy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/pkg/logger"
	"github.com/fastygo/energy-backoffice/pkg/metrics"
	"github.com/fastygo/energy-backoffice/repository"
)

// Aggregator resolves the indicators available for a taxonomy selection.
//
// Only the sector, the first energy type and the first standard narrow the join-row lookup.
// Issues and criteria must be non-empty but do not filter the rows.
type Aggregator struct {
	rows       repository.JoinRowReader
	indicators repository.IndicatorReader
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewAggregator(rows repository.JoinRowReader, indicators repository.IndicatorReader, m *metrics.Metrics, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		rows:       rows,
		indicators: indicators,
		metrics:    m,
		logger:     logger,
	}
}

// Resolve returns one record per (join row, known indicator code) in join-row order.
// Codes without an indicator row are dropped. On error no partial result is returned.
func (a *Aggregator) Resolve(ctx context.Context, sel domain.Selection) ([]domain.ResolvedIndicator, error) {
	out := []domain.ResolvedIndicator{}
	if !sel.Complete() {
		a.metrics.TaxonomyResolution("skipped")
		return out, nil
	}

	rows, err := a.rows.FindJoinRows(ctx, sel.Sector, sel.EnergyTypes[0], sel.Standards[0])
	if err != nil {
		a.metrics.TaxonomyResolution("error")
		return nil, fmt.Errorf("fetch join rows: %w", err)
	}
	if len(rows) == 0 {
		a.metrics.TaxonomyResolution("empty")
		return out, nil
	}

	codes := uniqueCodes(rows)
	if len(codes) == 0 {
		a.metrics.TaxonomyResolution("empty")
		return out, nil
	}

	refs, err := a.indicators.FindByCodes(ctx, codes)
	if err != nil {
		a.metrics.TaxonomyResolution("error")
		return nil, fmt.Errorf("fetch indicators: %w", err)
	}
	if len(refs) == 0 {
		a.metrics.TaxonomyResolution("empty")
		return out, nil
	}

	names := make(map[string]string, len(refs))
	for _, ref := range refs {
		names[ref.Code] = ref.Name
	}

	dropped := 0
	for _, row := range rows {
		unit := ""
		if row.Unit != nil {
			unit = *row.Unit
		}
		for _, code := range row.IndicatorCodes {
			name, ok := names[code]
			if !ok {
				dropped++
				continue
			}
			out = append(out, domain.ResolvedIndicator{
				IndicatorName: name,
				CriteriaName:  row.CriteriaName,
				Unit:          unit,
				CreatedAt:     row.CreatedAt,
			})
		}
	}
	if dropped > 0 {
		logger.WithRequestID(ctx, a.logger).Debug("dangling indicator codes skipped",
			zap.String("sector", sel.Sector), zap.Int("count", dropped))
	}

	a.metrics.TaxonomyResolution("resolved")
	return out, nil
}

// Refresh recomputes view only when the selection or the refresh trigger changed.
// It reports whether a recomputation happened. On error the view is cleared.
func (a *Aggregator) Refresh(ctx context.Context, view *domain.IndicatorView, sel domain.Selection, trigger string) (bool, error) {
	if view == nil {
		return false, domain.ErrInvalidPayload
	}
	key := viewKey(sel, trigger)
	if view.Key != "" && view.Key == key {
		return false, nil
	}

	records, err := a.Resolve(ctx, sel)
	if err != nil {
		view.Reset()
		return true, err
	}
	view.Key = key
	view.Records = records
	return true, nil
}

func uniqueCodes(rows []domain.JoinRow) []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for _, row := range rows {
		for _, code := range row.IndicatorCodes {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}

const keySep = "\x1f"

func viewKey(sel domain.Selection, trigger string) string {
	parts := []string{
		sel.Sector,
		strings.Join(sel.EnergyTypes, keySep),
		strings.Join(sel.Standards, keySep),
		strings.Join(sel.Issues, keySep),
		strings.Join(sel.Criteria, keySep),
		trigger,
	}
	return strings.Join(parts, "\x1e")
}
