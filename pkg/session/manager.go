package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/observability"
	"github.com/aretw0/scriptbridge/pkg/ports"
	"github.com/aretw0/scriptbridge/pkg/txn"
	"github.com/google/uuid"
)

// Session is one script-execution lifetime.
type Session struct {
	ID   string
	Vars *Guard[*Variables]
	Tx   *Guard[*txn.Transaction]
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager creates sessions and serializes work per key.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.EntityStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.Locker  // Optional cross-replica locker
	lockTTL time.Duration // Expiry of cross-replica locks

	nextTx    atomic.Int64
	sysTicket string
	source    string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option configures the Manager.
type Option func(*Manager)

// WithSysTicket sets the privileged ticket seeded into every session.
func WithSysTicket(ticket string) Option {
	return func(m *Manager) {
		m.sysTicket = ticket
	}
}

// WithSource sets the source forwarded with every committed update.
func WithSource(src string) Option {
	return func(m *Manager) {
		m.source = src
	}
}

// WithLocker serializes WithLock across replicas. The lock expires after
// ttl if a holder dies; a zero ttl keeps the default.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and its transactions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics records transaction outcomes.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a Session Manager over the given backing store.
func NewManager(store ports.EntityStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() ports.EntityStore {
	return m.store
}

// SysTicket returns the privileged ticket.
func (m *Manager) SysTicket() string {
	return m.sysTicket
}

// Start creates a session for an event. The variables are seeded with the
// system ticket and the parent ids derived from eventID.
func (m *Manager) Start(eventID string) *Session {
	id := uuid.NewString()

	vars := NewVariables()
	vars.SetAttr(KeyTicket, m.sysTicket)
	vars.SetAttr(KeyEventID, eventID)
	vars.BindParent(eventID)

	tx := txn.New(m.store,
		txn.WithID(m.nextTx.Add(1)),
		txn.WithSysTicket(m.sysTicket),
		txn.WithEventID(eventID),
		txn.WithSource(m.source),
		txn.WithLogger(m.logger.With("session_id", id)),
		txn.WithMetrics(m.metrics),
	)

	m.logger.Debug("session started", "session_id", id, "event_id", eventID)
	return &Session{
		ID:   id,
		Vars: NewGuard(vars),
		Tx:   NewGuard(tx),
	}
}

// Commit flushes the session transaction to the backing store.
func (m *Manager) Commit(ctx context.Context, s *Session) domain.ResultCode {
	var status domain.ResultCode
	s.Tx.Do(func(tx *txn.Transaction) {
		status = tx.Commit(ctx, m.store)
	})
	if status != domain.Ok {
		m.logger.Warn("commit aborted", "session_id", s.ID, "status", status)
	}
	return status
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes a function while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
