package runtime

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/match"
	"github.com/aretw0/spellout/pkg/tree"
)

// Engine is the derivation state machine. It is synchronous and not safe
// for concurrent use; callers serialize access per derivation.
type Engine struct {
	setup   *lexicon.Setup
	matcher *match.Matcher
	policy  lexicon.SeriesPolicy

	state           domain.State
	round           int
	tree            *tree.Tree
	log             []domain.Message
	highlights      map[tree.NodeID]domain.Highlight
	lexicalizations map[tree.NodeID]int
	pendingMoves    map[tree.NodeID]tree.NodeID
	lastChoice      int

	undo []frame

	// lexicalized holds the event of the step in progress until the step
	// commits.
	lexicalized *domain.LexicalizeEvent

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// NoChoice is the last choice of a derivation that never branched.
const NoChoice = -1

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithSeriesPolicy selects how conceptual series gate lexicon entries.
func WithSeriesPolicy(p lexicon.SeriesPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine in the not_started state.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		state:      domain.StateNotStarted,
		lastChoice: NoChoice,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:        time.Now,
	}
	e.resetMaps()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) resetMaps() {
	e.highlights = make(map[tree.NodeID]domain.Highlight)
	e.lexicalizations = make(map[tree.NodeID]int)
	e.pendingMoves = make(map[tree.NodeID]tree.NodeID)
}

// Start validates setup, keeps a private copy of it and enters
// just_started. Any previous derivation is discarded. On a validation error
// the engine is left untouched.
func (e *Engine) Start(setup *lexicon.Setup) error {
	if err := setup.Validate(); err != nil {
		e.logger.Warn("setup rejected", "err", err)
		return fmt.Errorf("invalid setup: %w", err)
	}
	e.setup = setup.Clone()
	e.matcher = match.New(e.setup, e.policy)
	e.undo = nil

	prev := e.state
	if err := e.switchState(domain.StateJustStarted, transitionArgs{}); err != nil {
		return err
	}
	e.logger.Debug("derivation started", "from", prev, "initial_node", e.setup.InitialNode.Name())
	e.emitStateEnter(domain.StateJustStarted)
	return nil
}

// Started reports whether Start has been called.
func (e *Engine) Started() bool {
	return e.state != domain.StateNotStarted
}

// CanGoForward reports whether GoForward may be called.
func (e *Engine) CanGoForward() bool {
	return e.Started() && !e.state.Terminal()
}

// CanGoBack reports whether there is a step to undo.
func (e *Engine) CanGoBack() bool {
	return len(e.undo) > 0
}

// GoForward performs one step. alternative selects a match at a choice
// point; pass domain.DefaultAlternative elsewhere. It is ignored by steps
// that do not lexicalize. An out-of-range alternative is rejected before
// anything changes.
func (e *Engine) GoForward(alternative int) error {
	if !e.CanGoForward() {
		return fmt.Errorf("%w from state %s", domain.ErrCannotGoForward, e.state)
	}

	next, args := e.nextState(alternative)
	if next == domain.StateLexicalizedNode {
		if err := e.checkAlternative(args.alternative); err != nil {
			e.logger.Warn("alternative rejected", "alternative", alternative, "err", err)
			return err
		}
	}

	prev := e.state
	e.undo = append(e.undo, nil)
	if err := e.switchState(next, args); err != nil {
		e.rollback()
		e.lexicalized = nil
		e.logger.Warn("step aborted", "from", prev, "to", next, "err", err)
		return err
	}

	e.logger.Debug("state transition", "from", prev, "to", next, "round", e.round)
	e.emitStateLeave(prev)
	e.emitStateEnter(next)
	if ev := e.lexicalized; ev != nil {
		e.lexicalized = nil
		if e.hooks.OnLexicalize != nil {
			ev.EventBase = e.base(domain.EventLexicalize)
			e.hooks.OnLexicalize(ev)
		}
	}
	if next == domain.StateFailure {
		e.emitFailure(args.reason)
	}
	return nil
}

// GoBack reverts the most recent GoForward exactly.
func (e *Engine) GoBack() error {
	if !e.CanGoBack() {
		return domain.ErrCannotGoBack
	}
	prev := e.state
	e.rollback()
	e.logger.Debug("state reverted", "from", prev, "to", e.state, "round", e.round)
	return nil
}

// rollback pops the newest frame and runs its commands newest first.
func (e *Engine) rollback() {
	last := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	for i := len(last) - 1; i >= 0; i-- {
		e.apply(last[i])
	}
}

func (e *Engine) checkAlternative(alternative int) error {
	node := e.firstNonLexicalized()
	if node == tree.Nil {
		return nil
	}
	matches := e.matcher.ForNode(e.tree, node)
	if len(matches) == 0 {
		return nil
	}
	if alternative == domain.DefaultAlternative {
		return nil
	}
	if alternative < 0 || alternative >= len(matches) {
		return fmt.Errorf("%w %d: %d alternatives available", domain.ErrInvalidAlternative, alternative, len(matches))
	}
	return nil
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, Round: e.round}
}

func (e *Engine) emitStateEnter(s domain.State) {
	if e.hooks.OnStateEnter != nil {
		e.hooks.OnStateEnter(&domain.StateEvent{EventBase: e.base(domain.EventStateEnter), State: s})
	}
}

func (e *Engine) emitStateLeave(s domain.State) {
	if e.hooks.OnStateLeave != nil {
		e.hooks.OnStateLeave(&domain.StateEvent{EventBase: e.base(domain.EventStateLeave), State: s})
	}
}

func (e *Engine) emitFailure(reason string) {
	if e.hooks.OnFailure != nil {
		e.hooks.OnFailure(&domain.FailureEvent{EventBase: e.base(domain.EventFailure), Reason: reason})
	}
}
