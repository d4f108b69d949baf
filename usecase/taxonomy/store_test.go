package taxonomy

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/energy-backoffice/domain"
)

// memStore implements both the taxonomy and the indicator repositories in memory.
type memStore struct {
	mu         sync.Mutex
	records    []domain.JoinRecord
	indicators map[string]domain.Indicator

	rowErr       error
	indicatorErr error

	rowCalls       int
	indicatorCalls int
	requested      [][]string
}

func newMemStore() *memStore {
	return &memStore{indicators: map[string]domain.Indicator{}}
}

func (s *memStore) addRow(sector, energy, standard, issue, criteria, unit string, codes ...string) {
	s.records = append(s.records, domain.JoinRecord{
		JoinKey: domain.JoinKey{
			SectorName: sector, EnergyTypeName: energy, StandardName: standard,
			IssueName: issue, CriteriaName: criteria,
		},
		IndicatorCodes: codes,
		Unit:           unit,
		CreatedAt:      time.Date(2024, 1, len(s.records)+1, 0, 0, 0, 0, time.UTC),
	})
}

func (s *memStore) addIndicator(code, name string) {
	s.indicators[code] = domain.Indicator{Code: code, Name: name}
}

func (s *memStore) FindJoinRows(_ context.Context, sector, energyType, standard string) ([]domain.JoinRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCalls++
	if s.rowErr != nil {
		return nil, s.rowErr
	}
	var rows []domain.JoinRow
	for _, r := range s.records {
		if r.SectorName == sector && r.EnergyTypeName == energyType && r.StandardName == standard {
			row := domain.JoinRow{
				CriteriaName:   r.CriteriaName,
				IndicatorCodes: append([]string(nil), r.IndicatorCodes...),
				CreatedAt:      r.CreatedAt,
			}
			if r.Unit != "" {
				unit := r.Unit
				row.Unit = &unit
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *memStore) FindByCodes(_ context.Context, codes []string) ([]domain.IndicatorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indicatorCalls++
	s.requested = append(s.requested, append([]string(nil), codes...))
	if s.indicatorErr != nil {
		return nil, s.indicatorErr
	}
	var refs []domain.IndicatorRef
	for _, code := range codes {
		if ind, ok := s.indicators[code]; ok {
			refs = append(refs, domain.IndicatorRef{Code: ind.Code, Name: ind.Name})
		}
	}
	return refs, nil
}

func (s *memStore) distinct(pick func(domain.JoinRecord) (string, bool)) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, r := range s.records {
		if v, ok := pick(r); ok && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func (s *memStore) ListSectors(context.Context) ([]string, error) {
	return s.distinct(func(r domain.JoinRecord) (string, bool) { return r.SectorName, true }), nil
}

func (s *memStore) ListEnergyTypes(_ context.Context, sector string) ([]string, error) {
	return s.distinct(func(r domain.JoinRecord) (string, bool) {
		return r.EnergyTypeName, r.SectorName == sector
	}), nil
}

func (s *memStore) ListStandards(_ context.Context, sector string, energyTypes []string) ([]string, error) {
	return s.distinct(func(r domain.JoinRecord) (string, bool) {
		return r.StandardName, r.SectorName == sector && contains(energyTypes, r.EnergyTypeName)
	}), nil
}

func (s *memStore) ListIssues(_ context.Context, sector string, energyTypes, standards []string) ([]string, error) {
	return s.distinct(func(r domain.JoinRecord) (string, bool) {
		return r.IssueName, r.SectorName == sector && contains(energyTypes, r.EnergyTypeName) &&
			contains(standards, r.StandardName)
	}), nil
}

func (s *memStore) ListCriteria(_ context.Context, sector string, energyTypes, standards, issues []string) ([]string, error) {
	return s.distinct(func(r domain.JoinRecord) (string, bool) {
		return r.CriteriaName, r.SectorName == sector && contains(energyTypes, r.EnergyTypeName) &&
			contains(standards, r.StandardName) && contains(issues, r.IssueName)
	}), nil
}

func (s *memStore) UpsertJoinRecord(_ context.Context, record *domain.JoinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.JoinKey == record.JoinKey {
			s.records[i].IndicatorCodes = record.IndicatorCodes
			s.records[i].Unit = record.Unit
			record.CreatedAt = r.CreatedAt
			return nil
		}
	}
	record.CreatedAt = time.Now()
	s.records = append(s.records, *record)
	return nil
}

func (s *memStore) LinkIndicator(_ context.Context, key domain.JoinKey, code, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.JoinKey == key {
			if !contains(r.IndicatorCodes, code) {
				s.records[i].IndicatorCodes = append(s.records[i].IndicatorCodes, code)
			}
			if s.records[i].Unit == "" {
				s.records[i].Unit = unit
			}
			return nil
		}
	}
	s.records = append(s.records, domain.JoinRecord{JoinKey: key, IndicatorCodes: []string{code}, Unit: unit, CreatedAt: time.Now()})
	return nil
}

func (s *memStore) UnlinkIndicator(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		kept := r.IndicatorCodes[:0:0]
		for _, c := range r.IndicatorCodes {
			if c != code {
				kept = append(kept, c)
			}
		}
		s.records[i].IndicatorCodes = kept
	}
	return nil
}

func (s *memStore) List(context.Context) ([]domain.Indicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Indicator, 0, len(s.indicators))
	for _, ind := range s.indicators {
		out = append(out, ind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memStore) Get(_ context.Context, code string) (*domain.Indicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ind, ok := s.indicators[code]
	if !ok {
		return nil, domain.ErrIndicatorNotFound
	}
	return &ind, nil
}

func (s *memStore) Create(_ context.Context, ind *domain.Indicator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indicators[ind.Code]; ok {
		return domain.NewError(domain.ErrCodeConflict, "indicator code already exists")
	}
	s.indicators[ind.Code] = *ind
	return nil
}

func (s *memStore) Update(_ context.Context, ind *domain.Indicator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indicators[ind.Code]; !ok {
		return domain.ErrIndicatorNotFound
	}
	s.indicators[ind.Code] = *ind
	return nil
}

func (s *memStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indicators[code]; !ok {
		return domain.ErrIndicatorNotFound
	}
	delete(s.indicators, code)
	return nil
}

type recordingJournal struct {
	entries []domain.LogEntry
}

func (j *recordingJournal) Record(_ context.Context, e domain.LogEntry) error {
	j.entries = append(j.entries, e)
	return nil
}
