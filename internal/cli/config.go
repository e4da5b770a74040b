package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/logging"
	"github.com/aretw0/spellout/pkg/adapters/badger"
	"github.com/aretw0/spellout/pkg/adapters/file"
	"github.com/aretw0/spellout/pkg/adapters/memory"
	"github.com/aretw0/spellout/pkg/adapters/redis"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/persistence/middleware"
	"github.com/aretw0/spellout/pkg/ports"
	"github.com/aretw0/spellout/pkg/session"
)

// Store kinds accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

// Config holds the persistent flags shared by every command.
type Config struct {
	Store         string
	StoreDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
	SeriesPolicy  string
	// EncryptionKey, base64 of 32 bytes, seals snapshots at rest.
	EncryptionKey string
}

// Logger builds the stderr logger for LogLevel. An empty level disables
// logging.
func (c Config) Logger() (*slog.Logger, error) {
	if c.LogLevel == "" {
		return logging.NewNop(), nil
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// EngineOptions translates the configuration into engine options.
func (c Config) EngineOptions(logger *slog.Logger) ([]spellout.Option, error) {
	policy, err := lexicon.ParseSeriesPolicy(c.SeriesPolicy)
	if err != nil {
		return nil, err
	}
	opts := []spellout.Option{
		spellout.WithLogger(logger),
		spellout.WithSeriesPolicy(policy),
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts = append(opts, spellout.WithLifecycleHooks(createDebugHooks(logger)))
	}
	return opts, nil
}

// Backend is an opened snapshot store and, when it supports one, a
// distributed locker.
type Backend struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend's resources.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the store selected by c.Store, wrapped in the
// encryption middleware when a key is configured.
func (c Config) OpenBackend(logger *slog.Logger) (*Backend, error) {
	b, err := c.openStore(logger)
	if err != nil || c.EncryptionKey == "" {
		return b, err
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mw)
	return b, nil
}

func (c Config) openStore(logger *slog.Logger) (*Backend, error) {
	dir := c.StoreDir
	if dir == "" {
		dir = ".spellout"
	}

	switch strings.ToLower(c.Store) {
	case "", StoreFile:
		return &Backend{Store: file.New(filepath.Join(dir, "sessions"))}, nil
	case StoreMemory:
		return &Backend{Store: memory.NewStore()}, nil
	case StoreRedis:
		store := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), "spellout:lock:"),
			close:  store.Close,
		}, nil
	case StoreBadger:
		store, err := badger.Open(badger.Config{
			Path:   filepath.Join(dir, "badger"),
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, close: store.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store %q (supported: %s, %s, %s, %s)", c.Store, StoreFile, StoreMemory, StoreRedis, StoreBadger)
	}
}

// NewManager opens the backend and builds a session manager over it. The
// caller closes the returned backend.
func (c Config) NewManager(logger *slog.Logger, extra ...spellout.Option) (*session.Manager, *Backend, error) {
	engineOpts, err := c.EngineOptions(logger)
	if err != nil {
		return nil, nil, err
	}
	backend, err := c.OpenBackend(logger)
	if err != nil {
		return nil, nil, err
	}
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithEngineOptions(append(engineOpts, extra...)...),
	}
	if backend.Locker != nil {
		opts = append(opts, session.WithLocker(backend.Locker))
	}
	return session.NewManager(backend.Store, opts...), backend, nil
}
