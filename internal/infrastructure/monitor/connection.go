package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/planner/internal/infrastructure/buffer"
)

// Monitor periodically pings the backing services. Components left nil are reported as
// disabled and never make the monitor go offline.
type Monitor struct {
	pg     *pgxpool.Pool
	redis  *redislib.Client
	outbox *buffer.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(pg *pgxpool.Pool, redis *redislib.Client, outbox *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		pg:       pg,
		redis:    redis,
		outbox:   outbox,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
	m.status = Status{
		PostgreSQL: initialState(pg != nil),
		Redis:      initialState(redis != nil),
		Outbox:     initialState(outbox != nil),
	}
	return m
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// AttachOutbox adds the outbox store once it has been opened.
func (m *Monitor) AttachOutbox(outbox *buffer.Store) {
	if outbox == nil {
		return
	}
	m.mu.Lock()
	m.outbox = outbox
	if m.status.Outbox == StateDisabled {
		m.status.Outbox = StateDown
	}
	m.mu.Unlock()
}

// IsOnline reports whether the primary stores answered the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL != StateDown && m.status.Redis != StateDown
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh runs all checks once.
func (m *Monitor) Refresh() {
	outboxState, outboxSize := m.checkOutbox()
	status := Status{
		PostgreSQL: m.checkPostgres(),
		Redis:      m.checkRedis(),
		Outbox:     outboxState,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.PostgreSQL != status.PostgreSQL || previous.Redis != status.Redis {
		m.logger.Info("connection state changed",
			zap.String("postgresql", status.PostgreSQL),
			zap.String("redis", status.Redis))
	}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) checkPostgres() string {
	if m.pg == nil {
		return StateDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return stateOf(m.pg.Ping(ctx))
}

func (m *Monitor) checkRedis() string {
	if m.redis == nil {
		return StateDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return stateOf(m.redis.Ping(ctx).Err())
}

func (m *Monitor) checkOutbox() (string, int) {
	m.mu.RLock()
	outbox := m.outbox
	m.mu.RUnlock()

	if outbox == nil {
		return StateDisabled, 0
	}
	size, err := outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return StateDown, size
	}
	return StateUp, size
}

func initialState(configured bool) string {
	if configured {
		return StateDown
	}
	return StateDisabled
}

func stateOf(err error) string {
	if err != nil {
		return StateDown
	}
	return StateUp
}
