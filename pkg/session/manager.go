package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/logging"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock is held per operation.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates derivation sessions. Each operation loads the
// session's snapshot, applies commands to a fresh engine and saves the
// result, all while holding that session's lock.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	logger     *slog.Logger
	engineOpts []spellout.Option
	newID      func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEngineOptions are applied to every engine the manager builds, e.g.
// lifecycle hooks for metrics or a series policy.
func WithEngineOptions(opts ...spellout.Option) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// WithIDGenerator replaces the uuid generator used by Create.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) engine(sessionID string) *spellout.Engine {
	opts := append([]spellout.Option{spellout.WithLogger(m.logger)}, m.engineOpts...)
	opts = append(opts, spellout.WithName(sessionID))
	return spellout.New(opts...)
}

func (m *Manager) save(ctx context.Context, sessionID string, eng *spellout.Engine) error {
	data, err := eng.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}
	if err := m.store.Save(ctx, sessionID, data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*spellout.Engine, error) {
	data, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	eng := m.engine(sessionID)
	if err := eng.UnmarshalSnapshot(data); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return eng, nil
}

// Create validates setup, starts a derivation and persists it under a new
// session ID.
func (m *Manager) Create(ctx context.Context, setup *lexicon.Setup) (*domain.Progress, error) {
	sessionID := m.newID()
	eng := m.engine(sessionID)
	if err := eng.Start(setup); err != nil {
		return nil, err
	}

	var progress *domain.Progress
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.save(ctx, sessionID, eng); err != nil {
			return err
		}
		progress = eng.Progress(sessionID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("session created", "session_id", sessionID)
	return progress, nil
}

// Load returns the engine restored from the session's snapshot. Changes to
// it are not persisted; use Update for that.
func (m *Manager) Load(ctx context.Context, sessionID string) (*spellout.Engine, error) {
	var eng *spellout.Engine
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		eng, err = m.load(ctx, sessionID)
		return err
	})
	return eng, err
}

// Progress summarizes the stored session.
func (m *Manager) Progress(ctx context.Context, sessionID string) (*domain.Progress, error) {
	eng, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return eng.Progress(sessionID), nil
}

// Update runs fn against the session's engine under lock and saves the
// result. When fn fails nothing is saved.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*spellout.Engine) error) (*domain.Progress, error) {
	var progress *domain.Progress
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		eng, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(eng); err != nil {
			return err
		}
		if err := m.save(ctx, sessionID, eng); err != nil {
			return err
		}
		progress = eng.Progress(sessionID)
		return nil
	})
	return progress, err
}

// Forward performs one step with the given alternative.
func (m *Manager) Forward(ctx context.Context, sessionID string, alternative int) (*domain.Progress, error) {
	return m.Update(ctx, sessionID, func(eng *spellout.Engine) error {
		return eng.GoForward(alternative)
	})
}

// Back reverts the latest step.
func (m *Manager) Back(ctx context.Context, sessionID string) (*domain.Progress, error) {
	return m.Update(ctx, sessionID, func(eng *spellout.Engine) error {
		return eng.GoBack()
	})
}

// Run steps the session to the end with default alternatives. With
// onlySuccessful it backtracks through the remaining possibilities until
// one succeeds; reaching none is not an error, the session just ends in
// failure.
func (m *Manager) Run(ctx context.Context, sessionID string, onlySuccessful bool) (*domain.Progress, error) {
	return m.Update(ctx, sessionID, func(eng *spellout.Engine) error {
		if err := eng.GoToEnd(); err != nil {
			return err
		}
		if !onlySuccessful || eng.Success() {
			return nil
		}
		if _, err := eng.NextPossibility(true); err != nil {
			return err
		}
		return eng.GoToEnd()
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
