package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/spellout/pkg/adapters/memory"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/ports"
	"github.com/aretw0/spellout/pkg/session"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string][]byte
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snapshot []byte) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[sessionID] = snapshot
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, ok := s.data[sessionID]; ok {
		return data, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

var _ ports.SnapshotStore = (*SlowStore)(nil)

func setup() *lexicon.Setup {
	return &lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon: []lexicon.Entry{
			{Name: "saw", PhonologicalContent: "sɔː", Tree: tree.MustParse("V")},
			{Name: "the", PhonologicalContent: "ðə", Tree: tree.MustParse("D")},
		},
	}
}

func fixedIDs(ids ...string) session.Option {
	i := 0
	return session.WithIDGenerator(func() string {
		id := ids[i%len(ids)]
		i++
		return id
	})
}

func TestManager_CreateForwardBack(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore(), fixedIDs("s1"))

	p, err := mgr.Create(ctx, setup())
	require.NoError(t, err)
	assert.Equal(t, "s1", p.SessionID)
	assert.Equal(t, domain.StateJustStarted, p.State)

	p, err = mgr.Forward(ctx, "s1", domain.DefaultAlternative)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBeginMergeRound, p.State)

	p, err = mgr.Back(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateJustStarted, p.State)

	_, err = mgr.Back(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrCannotGoBack)

	stored, err := mgr.Progress(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateJustStarted, stored.State, "failed commands are not saved")
}

func TestManager_CreateRejectsInvalidSetup(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)

	bad := setup()
	bad.Lexicon = nil
	_, err := mgr.Create(context.Background(), bad)
	assert.ErrorIs(t, err, lexicon.ErrEmptyLexicon)

	ids, _ := store.List(context.Background())
	assert.Empty(t, ids)
}

func TestManager_Run(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore(), fixedIDs("ok", "fail"))

	_, err := mgr.Create(ctx, setup())
	require.NoError(t, err)
	p, err := mgr.Run(ctx, "ok", true)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSuccess, p.State)
	assert.Equal(t, []string{"the", "saw"}, p.Spellout)

	failing := setup()
	failing.Lexicon = failing.Lexicon[:1]
	_, err = mgr.Create(ctx, failing)
	require.NoError(t, err)
	p, err = mgr.Run(ctx, "fail", true)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailure, p.State)
}

func TestManager_NotFound(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())

	_, err := mgr.Forward(context.Background(), "ghost", domain.DefaultAlternative)
	assert.True(t, session.IsNotFound(err))

	require.NoError(t, mgr.Delete(context.Background(), "ghost"))
}

func TestManager_ConcurrentForwardsAreSerialized(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(&SlowStore{}, fixedIDs("race"))

	_, err := mgr.Create(ctx, setup())
	require.NoError(t, err)

	const steps = 5
	var wg sync.WaitGroup
	for i := 0; i < steps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Forward(ctx, "race", domain.DefaultAlternative)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Without locking, concurrent read-modify-write cycles would lose steps.
	eng, err := mgr.Load(ctx, "race")
	require.NoError(t, err)
	back := 0
	for eng.CanGoBack() {
		require.NoError(t, eng.GoBack())
		back++
	}
	assert.Equal(t, steps, back)
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	fails bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fails {
		return nil, fmt.Errorf("unavailable")
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	locker := &recordingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), fixedIDs("d1"))

	_, err := mgr.Create(ctx, setup())
	require.NoError(t, err)
	_, err = mgr.Forward(ctx, "d1", domain.DefaultAlternative)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d1"}, locker.keys)

	locker.fails = true
	_, err = mgr.Forward(ctx, "d1", domain.DefaultAlternative)
	assert.ErrorContains(t, err, "distributed lock")
}

func TestManager_EngineOptions(t *testing.T) {
	ctx := context.Background()
	var entered []domain.State
	hooks := domain.LifecycleHooks{
		OnStateEnter: func(ev *domain.StateEvent) { entered = append(entered, ev.State) },
	}
	mgr := session.NewManager(memory.NewStore(), fixedIDs("h"), session.WithEngineOptions(spelloutHooks(hooks)))

	_, err := mgr.Create(ctx, setup())
	require.NoError(t, err)
	_, err = mgr.Forward(ctx, "h", domain.DefaultAlternative)
	require.NoError(t, err)

	assert.Equal(t, []domain.State{domain.StateJustStarted, domain.StateBeginMergeRound}, entered)
}
