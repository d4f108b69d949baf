package lifecycle

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

// RunFunc is a long-running component. It should return once ctx is done or it was shut down.
type RunFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

type runner struct {
	name string
	fn   RunFunc
}

// Manager starts long-running components, waits for a termination signal or the first
// component failure, then runs shutdown hooks in reverse registration order.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	hooks   []hook
	runners []runner
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a shutdown hook.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Go adds a component started by Run.
func (m *Manager) Go(name string, fn RunFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners = append(m.runners, runner{name: name, fn: fn})
}

// Run blocks until SIGINT/SIGTERM, parent cancellation or a component error, then shuts down.
func (m *Manager) Run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	m.mu.Lock()
	runners := append([]runner(nil), m.runners...)
	m.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)
	for _, r := range runners {
		group.Go(func() error {
			m.logger.Info("component started", zap.String("component", r.name))
			if err := r.fn(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("component failed", zap.String("component", r.name), zap.Error(err))
				return err
			}
			return nil
		})
	}

	<-groupCtx.Done()
	if ctx.Err() != nil {
		m.logger.Info("shutdown signal received")
	}

	shutdownErr := m.Shutdown(context.Background())
	return errors.Join(group.Wait(), shutdownErr)
}

// Shutdown executes all registered hooks within the configured timeout.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var result error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}
	return result
}
