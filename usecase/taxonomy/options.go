package taxonomy

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/repository"
)

// OptionSet lists the values selectable at each step given the choices made so far.
type OptionSet struct {
	Sectors     []string `json:"sectors"`
	EnergyTypes []string `json:"energy_types"`
	Standards   []string `json:"standards"`
	Issues      []string `json:"issues"`
	Criteria    []string `json:"criteria"`
}

// Options feeds the cascading selector from DISTINCT values of the join table.
type Options struct {
	repo   repository.TaxonomyRepository
	logger *zap.Logger
}

func NewOptions(repo repository.TaxonomyRepository, logger *zap.Logger) *Options {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Options{repo: repo, logger: logger}
}

// Load fetches every level whose parent choices are present. Levels are loaded concurrently.
func (o *Options) Load(ctx context.Context, sel domain.Selection) (*OptionSet, error) {
	set := &OptionSet{
		Sectors:     []string{},
		EnergyTypes: []string{},
		Standards:   []string{},
		Issues:      []string{},
		Criteria:    []string{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		set.Sectors, err = o.repo.ListSectors(gctx)
		return err
	})
	if sel.Sector != "" {
		g.Go(func() (err error) {
			set.EnergyTypes, err = o.repo.ListEnergyTypes(gctx, sel.Sector)
			return err
		})
		if len(sel.EnergyTypes) > 0 {
			g.Go(func() (err error) {
				set.Standards, err = o.repo.ListStandards(gctx, sel.Sector, sel.EnergyTypes)
				return err
			})
			if len(sel.Standards) > 0 {
				g.Go(func() (err error) {
					set.Issues, err = o.repo.ListIssues(gctx, sel.Sector, sel.EnergyTypes, sel.Standards)
					return err
				})
				if len(sel.Issues) > 0 {
					g.Go(func() (err error) {
						set.Criteria, err = o.repo.ListCriteria(gctx, sel.Sector, sel.EnergyTypes, sel.Standards, sel.Issues)
						return err
					})
				}
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}
