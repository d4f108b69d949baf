package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/energy-backoffice/domain"
	"github.com/fastygo/energy-backoffice/internal/infrastructure/journal"
	"github.com/fastygo/energy-backoffice/repository"
	"github.com/fastygo/energy-backoffice/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ShipmentRecorder receives drain outcomes. *metrics.Metrics satisfies it.
type ShipmentRecorder interface {
	JournalShipped(result string, n int)
}

// ShipperConfig controls how frequently the local journal is drained.
type ShipperConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// JournalShipper writes modification logs straight to PostgreSQL when it is reachable
// and parks them in the local bbolt journal otherwise.
type JournalShipper struct {
	store   *journal.Store
	monitor ConnectionHealth
	logs    repository.LogRepository
	metrics ShipmentRecorder
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ShipperConfig
}

var _ usecase.Journal = (*JournalShipper)(nil)

func NewJournalShipper(
	store *journal.Store,
	monitor ConnectionHealth,
	logs repository.LogRepository,
	recorder ShipmentRecorder,
	logger *zap.Logger,
	cfg ShipperConfig,
) (*JournalShipper, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	js := &JournalShipper{
		store:   store,
		monitor: monitor,
		logs:    logs,
		metrics: recorder,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := js.cron.AddFunc(schedule, js.tick); err != nil {
		return nil, fmt.Errorf("schedule journal drain: %w", err)
	}
	return js, nil
}

func (js *JournalShipper) Start() {
	if js == nil || js.cron == nil {
		return
	}
	js.cron.Start()
	js.logger.Info("journal shipper started", zap.Duration("interval", js.cfg.Interval))
}

// Stop waits for a running drain, bounded by ctx.
func (js *JournalShipper) Stop(ctx context.Context) {
	if js == nil || js.cron == nil {
		return
	}
	stopCtx := js.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	js.logger.Info("journal shipper stopped")
}

// Record inserts entry immediately when online and falls back to the local journal.
func (js *JournalShipper) Record(ctx context.Context, entry domain.LogEntry) error {
	if js == nil || js.store == nil {
		return errors.New("journal shipper not configured")
	}
	if js.online() {
		err := js.logs.InsertBatch(ctx, []domain.LogEntry{entry})
		if err == nil {
			js.record("direct", 1)
			return nil
		}
		js.logger.Warn("direct journal insert failed, buffering", zap.String("entry_id", entry.ID), zap.Error(err))
	}
	return js.store.Append(entry)
}

// Drain ships one batch from the local journal.
func (js *JournalShipper) Drain(ctx context.Context) error {
	if js == nil || js.store == nil {
		return nil
	}
	if !js.online() {
		js.logger.Debug("skipping journal drain (offline)")
		return nil
	}

	records, err := js.store.Batch(js.cfg.BatchSize)
	if err != nil || len(records) == 0 {
		return err
	}

	entries := make([]domain.LogEntry, len(records))
	for i, rec := range records {
		entries[i] = rec.Entry
	}
	if err := js.logs.InsertBatch(ctx, entries); err != nil {
		js.logger.Error("journal batch insert failed", zap.Int("batch", len(records)), zap.Error(err))
		return js.retry(records)
	}

	if err := js.store.Remove(records...); err != nil {
		// InsertBatch is idempotent on id, a later drain re-sends harmlessly.
		js.logger.Warn("failed to purge shipped journal entries", zap.Error(err))
	}
	js.record("shipped", len(records))
	return nil
}

// Size returns the number of buffered entries.
func (js *JournalShipper) Size() int {
	if js == nil || js.store == nil {
		return 0
	}
	size, err := js.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (js *JournalShipper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), js.cfg.Interval)
	defer cancel()
	if err := js.Drain(ctx); err != nil {
		js.logger.Error("journal drain failed", zap.Error(err))
	}
	if js.cfg.Retention > 0 {
		dropped, err := js.store.Cleanup(time.Now().Add(-js.cfg.Retention))
		if err != nil {
			js.logger.Warn("journal cleanup failed", zap.Error(err))
		}
		if dropped > 0 {
			js.logger.Warn("expired journal entries dropped", zap.Int("count", dropped))
			js.record("expired", dropped)
		}
	}
}

func (js *JournalShipper) retry(records []journal.Record) error {
	var keep, drop []journal.Record
	for _, rec := range records {
		if rec.Attempts+1 >= js.cfg.MaxRetries {
			js.logger.Warn("dropping journal entry (max retries reached)",
				zap.String("entry_id", rec.Entry.ID),
				zap.String("entity", rec.Entry.Entity))
			drop = append(drop, rec)
			continue
		}
		keep = append(keep, rec)
	}
	if err := js.store.Remove(drop...); err != nil {
		return err
	}
	js.record("dropped", len(drop))
	js.record("retried", len(keep))
	return js.store.Retry(keep...)
}

func (js *JournalShipper) online() bool {
	return js.monitor == nil || js.monitor.IsOnline()
}

func (js *JournalShipper) record(result string, n int) {
	if js.metrics != nil {
		js.metrics.JournalShipped(result, n)
	}
}
