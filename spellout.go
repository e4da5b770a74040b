package spellout

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/spellout/internal/runtime"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
)

// ErrNoSuccessfulDerivation is returned by FullRun when every possibility
// was tried and none succeeded.
var ErrNoSuccessfulDerivation = errors.New("no successful derivation")

// Engine is the high-level entry point for the spellout library.
// It wraps the internal runtime and adds the controller operations that
// drive whole runs and enumerate the possibilities of a derivation.
type Engine struct {
	runtime *runtime.Engine
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	policy  lexicon.SeriesPolicy
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSeriesPolicy selects how conceptual series gate lexicon entries.
func WithSeriesPolicy(p lexicon.SeriesPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithName labels the engine; the name is attached to every log record.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an engine in the not_started state.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("derivation", eng.Name)
	}

	eng.runtime = runtime.NewEngine(eng.runtimeOptions()...)
	return eng
}

// Load initializes an engine from a snapshot produced by MarshalSnapshot.
func Load(data []byte, opts ...Option) (*Engine, error) {
	eng := New(opts...)
	if err := eng.UnmarshalSnapshot(data); err != nil {
		return nil, err
	}
	return eng, nil
}

func (e *Engine) runtimeOptions() []runtime.Option {
	return []runtime.Option{
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithSeriesPolicy(e.policy),
	}
}

// Start validates setup and begins a new derivation.
func (e *Engine) Start(setup *lexicon.Setup) error {
	return e.runtime.Start(setup)
}

// Restart begins the current derivation again from its setup.
func (e *Engine) Restart() error {
	setup := e.runtime.Setup()
	if setup == nil {
		return domain.ErrNotStarted
	}
	return e.runtime.Start(setup)
}

// GoForward performs one step, see runtime.Engine.GoForward.
func (e *Engine) GoForward(alternative int) error {
	return e.runtime.GoForward(alternative)
}

// GoBack reverts the latest step.
func (e *Engine) GoBack() error {
	return e.runtime.GoBack()
}

// CanGoForward reports whether GoForward would make progress.
func (e *Engine) CanGoForward() bool { return e.runtime.CanGoForward() }

// CanGoBack reports whether there is a step to undo.
func (e *Engine) CanGoBack() bool { return e.runtime.CanGoBack() }

// Started reports whether Start has been called.
func (e *Engine) Started() bool { return e.runtime.Started() }

// Success reports whether the derivation ended in the success state.
func (e *Engine) Success() bool { return e.runtime.Success() }

// State returns the current state identifier.
func (e *Engine) State() domain.State { return e.runtime.State() }

// Round returns the external merge round counter.
func (e *Engine) Round() int { return e.runtime.Round() }

// Alternatives lists the options GoForward accepts in the current state.
func (e *Engine) Alternatives() []domain.Alternative { return e.runtime.Alternatives() }

// InChoiceState reports whether the current state offers more than one match.
func (e *Engine) InChoiceState() bool { return e.runtime.InChoiceState() }

// LastChoice returns the alternative taken at the most recent choice point.
func (e *Engine) LastChoice() (int, bool) { return e.runtime.LastChoice() }

// Spellout returns the linearized lexical items of the current tree.
func (e *Engine) Spellout() []lexicon.Entry { return e.runtime.Spellout() }

// Log returns a copy of the derivation log.
func (e *Engine) Log() []domain.Message { return e.runtime.Log() }

// Setup returns the setup the derivation was started with.
func (e *Engine) Setup() *lexicon.Setup { return e.runtime.Setup() }

// Tree returns a clone of the current tree.
func (e *Engine) Tree() *tree.Tree { return e.runtime.Tree() }

// HighlightedNodes returns a copy of the current highlights.
func (e *Engine) HighlightedNodes() map[tree.NodeID]domain.Highlight {
	return e.runtime.HighlightedNodes()
}

// Lexicalizations maps lexicalized nodes to their lexicon index, or
// lexicon.NoEntry for nodes lexicalized to none.
func (e *Engine) Lexicalizations() map[tree.NodeID]int {
	return e.runtime.Lexicalizations()
}

// PendingMoves maps each node waiting to move to its destination.
func (e *Engine) PendingMoves() map[tree.NodeID]tree.NodeID {
	return e.runtime.PendingMoves()
}

// GoToEnd steps with default alternatives until the derivation blocks.
func (e *Engine) GoToEnd() error {
	for e.runtime.CanGoForward() {
		if err := e.runtime.GoForward(domain.DefaultAlternative); err != nil {
			return err
		}
	}
	return nil
}

// FullRun restarts the derivation and runs it to the end. With
// onlySuccessful it keeps trying further possibilities until one succeeds;
// if none does, the engine is left at the end of the first path and
// ErrNoSuccessfulDerivation is returned.
func (e *Engine) FullRun(onlySuccessful bool) error {
	if err := e.Restart(); err != nil {
		return err
	}
	if err := e.GoToEnd(); err != nil {
		return err
	}
	if !onlySuccessful || e.runtime.Success() {
		return nil
	}

	found, err := e.NextPossibility(true)
	if err != nil {
		return err
	}
	if !found {
		if err := e.GoToEnd(); err != nil {
			return err
		}
		return ErrNoSuccessfulDerivation
	}
	return nil
}

// HasNextPossibility reports whether a choice was made along the current
// path, i.e. whether NextPossibility has somewhere to backtrack to.
func (e *Engine) HasNextPossibility() bool {
	_, ok := e.runtime.LastChoice()
	return ok
}

// GoToLastChoice steps back to the most recent choice point. It returns
// false when the current path contains no choice.
func (e *Engine) GoToLastChoice() (bool, error) {
	if !e.HasNextPossibility() {
		return false, nil
	}
	if err := e.runtime.GoBack(); err != nil {
		return false, err
	}
	for !e.runtime.InChoiceState() {
		if err := e.runtime.GoBack(); err != nil {
			return false, fmt.Errorf("rewinding to last choice: %w", err)
		}
	}
	return true, nil
}

// NextPossibility backtracks to the latest choice point that still has an
// untried alternative, takes it and runs to the end. With onlySuccessful,
// paths ending in failure are skipped. It returns false once every
// possibility has been tried.
func (e *Engine) NextPossibility(onlySuccessful bool) (bool, error) {
	for {
		last, _ := e.runtime.LastChoice()
		ok, err := e.GoToLastChoice()
		if err != nil || !ok {
			return false, err
		}

		if last == len(e.runtime.Alternatives())-1 {
			continue
		}
		if err := e.runtime.GoForward(last + 1); err != nil {
			return false, err
		}
		if err := e.GoToEnd(); err != nil {
			return false, err
		}
		if onlySuccessful && !e.runtime.Success() {
			continue
		}
		return true, nil
	}
}

// MarshalSnapshot encodes the full derivation, undo history included.
func (e *Engine) MarshalSnapshot() ([]byte, error) {
	return e.runtime.MarshalJSON()
}

// UnmarshalSnapshot replaces the derivation with a decoded snapshot. On
// error the engine is unchanged.
func (e *Engine) UnmarshalSnapshot(data []byte) error {
	rt, err := runtime.Unmarshal(data, e.runtimeOptions()...)
	if err != nil {
		return err
	}
	e.runtime = rt
	return nil
}

// Progress summarizes the derivation for transport layers.
func (e *Engine) Progress(sessionID string) *domain.Progress {
	p := &domain.Progress{
		SessionID: sessionID,
		State:     e.runtime.State(),
		Round:     e.runtime.Round(),
		Log:       e.runtime.Log(),
	}
	if e.runtime.CanGoForward() {
		p.Alternatives = e.runtime.Alternatives()
	}
	if e.runtime.Success() {
		for _, entry := range e.runtime.Spellout() {
			p.Spellout = append(p.Spellout, entry.Name)
		}
	}
	return p
}
