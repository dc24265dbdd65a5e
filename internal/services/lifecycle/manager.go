// Package lifecycle stops the planner's components in reverse start order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc stops one component.
type ShutdownFunc func(ctx context.Context) error

type component struct {
	name string
	stop ShutdownFunc
}

// Manager owns the shutdown order of the server's components: the HTTP
// listener first, then the outbox processor, then the stores it writes to.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
	stopped    bool
}

// New creates a manager that gives all components timeout to stop.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a component. Components stop in reverse registration order.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: fn})
}

// RegisterCloser registers a component that only needs Close.
func (m *Manager) RegisterCloser(name string, closer io.Closer) {
	if closer == nil {
		return
	}
	m.Register(name, func(context.Context) error { return closer.Close() })
}

// RegisterStop registers a component whose stop cannot fail.
func (m *Manager) RegisterStop(name string, stop func()) {
	if stop == nil {
		return
	}
	m.Register(name, func(context.Context) error {
		stop()
		return nil
	})
}

// Shutdown stops every registered component once. Later calls are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true

	var result error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		started := time.Now()
		if err := c.stop(ctx); err != nil {
			m.logger.Error("component shutdown failed", zap.String("component", c.name), zap.Error(err))
			result = errors.Join(result, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		m.logger.Info("component stopped",
			zap.String("component", c.name),
			zap.Duration("took", time.Since(started)))
	}
	return result
}

// Listen calls cancel on SIGINT or SIGTERM. The returned func stops listening.
func (m *Manager) Listen(cancel context.CancelFunc) func() {
	if cancel == nil {
		return func() {}
	}
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
