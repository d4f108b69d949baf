package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Probe returns nil when its dependency is reachable.
type Probe func(ctx context.Context) error

// Backlog reports the size of the local journal buffer.
type Backlog interface {
	Size() (int, error)
}

// PostgresProbe pings the pool.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

// RedisProbe pings the client.
func RedisProbe(client *redislib.Client) Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Monitor periodically runs its probes and caches the result for the health endpoint and the journal shipper.
type Monitor struct {
	probes  map[string]Probe
	backlog Backlog

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(probes map[string]Probe, backlog Backlog, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		backlog:  backlog,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the postgres probe passed on the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Checks["postgresql"]
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	checks := make(map[string]bool, len(m.status.Checks))
	for name, ok := range m.status.Checks {
		checks[name] = ok
	}
	status := m.status
	status.Checks = checks
	return status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the snapshot.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Checks:    make(map[string]bool, len(m.probes)+1),
		LastCheck: time.Now(),
	}
	for name, probe := range m.probes {
		status.Checks[name] = m.run(ctx, name, probe)
	}
	if m.backlog != nil {
		size, err := m.backlog.Size()
		if err != nil {
			m.logger.Warn("journal backlog check failed", zap.Error(err))
		}
		status.Checks["journal"] = err == nil
		status.JournalBacklog = size
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) run(ctx context.Context, name string, probe Probe) bool {
	if probe == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := probe(probeCtx); err != nil {
		m.logger.Debug("dependency check failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}
