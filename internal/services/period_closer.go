package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PeriodCloser is the slice of the period use case the scheduler drives.
type PeriodCloser interface {
	CloseEnded(ctx context.Context) (int64, error)
}

type ClosureRecorder interface {
	PeriodsClosed(n int64)
}

// PeriodScheduler closes collection periods whose end date has passed.
type PeriodScheduler struct {
	closer  PeriodCloser
	metrics ClosureRecorder
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewPeriodScheduler registers closer under spec, a six-field cron expression.
func NewPeriodScheduler(closer PeriodCloser, recorder ClosureRecorder, spec string, logger *zap.Logger) (*PeriodScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ps := &PeriodScheduler{
		closer:  closer,
		metrics: recorder,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
	}
	if _, err := ps.cron.AddFunc(spec, func() {
		if _, err := ps.Run(context.Background()); err != nil {
			ps.logger.Error("closing ended periods failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule period closing %q: %w", spec, err)
	}
	return ps, nil
}

// Run closes ended periods once.
func (ps *PeriodScheduler) Run(ctx context.Context) (int64, error) {
	closed, err := ps.closer.CloseEnded(ctx)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		ps.logger.Info("collection periods closed", zap.Int64("count", closed))
		if ps.metrics != nil {
			ps.metrics.PeriodsClosed(closed)
		}
	}
	return closed, nil
}

func (ps *PeriodScheduler) Start() {
	ps.cron.Start()
}

func (ps *PeriodScheduler) Stop(ctx context.Context) {
	stopCtx := ps.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}
