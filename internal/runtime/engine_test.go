package runtime_test

import (
	"testing"

	"github.com/aretw0/spellout/internal/runtime"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_NotStarted(t *testing.T) {
	e := runtime.NewEngine()

	assert.False(t, e.Started())
	assert.False(t, e.CanGoForward())
	assert.False(t, e.CanGoBack())
	assert.Nil(t, e.Tree())
	assert.ErrorIs(t, e.GoForward(domain.DefaultAlternative), domain.ErrCannotGoForward)
	assert.ErrorIs(t, e.GoBack(), domain.ErrCannotGoBack)
}

func TestEngine_StartRejectsInvalidSetup(t *testing.T) {
	e := runtime.NewEngine()
	setup := sawSetup()
	setup.ExternalMerges = nil

	err := e.Start(setup)
	assert.ErrorIs(t, err, lexicon.ErrNoExternalMerges)
	assert.Equal(t, domain.StateNotStarted, e.State())
}

func TestEngine_Start(t *testing.T) {
	e := started(t, sawSetup())

	assert.Equal(t, domain.StateJustStarted, e.State())
	assert.Equal(t, 0, e.Round())
	assert.False(t, e.CanGoBack(), "start is not undoable")
	assert.Equal(t, []domain.Message{
		{Severity: domain.SeverityNote, Text: "Algorithm started."},
		{Severity: domain.SeverityNote, Text: "Initial tree consists of node V"},
	}, e.Log())
	assert.Equal(t, "V", tree.Format(e.Tree()))
}

func TestEngine_StartCopiesSetup(t *testing.T) {
	setup := sawSetup()
	e := started(t, setup)
	setup.Lexicon[0].Name = "changed"

	assert.Equal(t, "saw", e.Setup().Lexicon[0].Name)
}

func TestEngine_ScenarioSuccess(t *testing.T) {
	e := started(t, sawSetup())

	states := runToEnd(t, e)
	assert.Equal(t, []domain.State{
		domain.StateBeginMergeRound,
		domain.StateAnnounceExternalMerge,
		domain.StateMergedNode,
		domain.StateAnnounceLexicalization,
		domain.StateListMatches,
		domain.StateLexicalizedNode,
		domain.StateAnnounceLexicalization,
		domain.StateListMatches,
		domain.StateLexicalizedNode,
		domain.StateAnnounceLexicalization,
		domain.StateListMatches,
		domain.StateLexicalizedNode,
		domain.StateLexicalizationDone,
		domain.StateEndMergeRound,
		domain.StateBeginMergeRound,
		domain.StateLexicalizationDone,
		domain.StateEndMergeRound,
		domain.StateSuccess,
	}, states)

	assert.True(t, e.Success())
	assert.Equal(t, []string{"the", "saw"}, spellout(e))
	assert.Equal(t, "DP(D, V)", tree.Format(e.Tree()))
	assert.Empty(t, e.HighlightedNodes())

	log := e.Log()
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityNote, Text: "Beginning of external merge round no.1"})
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityNote, Text: "Merged node D"})
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityNote, Text: "Matches: saw"})
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityNote, Text: "Lexicalized node D using item the"})
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityWarning, Text: "No matches for this node"})
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityNote, Text: "OK, since children are lexicalized"})
	assert.Contains(t, log, domain.Message{Severity: domain.SeverityNote, Text: "Beginning of final cleanup round"})
	assert.Equal(t, domain.Message{Severity: domain.SeverityNote, Text: "Spell-out: the+saw (/ðə sɔː/)"}, log[len(log)-1])

	_, ok := e.LastChoice()
	assert.False(t, ok, "no real choice was made")
}

func TestEngine_ScenarioFailure(t *testing.T) {
	setup := sawSetup()
	setup.Lexicon = setup.Lexicon[:1]
	e := started(t, setup)

	states := runToEnd(t, e)
	assert.Equal(t, domain.StateFailure, states[len(states)-1])
	assert.False(t, e.Success())
	assert.False(t, e.CanGoForward())
	assert.True(t, e.CanGoBack(), "failure is recoverable by going back")

	log := e.Log()
	assert.Equal(t, domain.Message{
		Severity: domain.SeverityError,
		Text:     "FAILURE: Children are not lexicalized either, lexicalization failed",
	}, log[len(log)-1])
}

func TestEngine_Movement(t *testing.T) {
	e := started(t, movementSetup())

	states := runToEnd(t, e)
	assert.Contains(t, states, domain.StateAnnounceMove)
	assert.Contains(t, states, domain.StateMovedNode)
	require.True(t, e.Success())

	assert.Equal(t, "DP2(D, DP1(tD, V))", tree.Format(e.Tree()))
	assert.NoError(t, e.Tree().Check())
	assert.Equal(t, []string{"the", "x"}, spellout(e))
	assert.Empty(t, e.PendingMoves())
	assert.Contains(t, e.Log(), domain.Message{Severity: domain.SeverityNote, Text: "Lexicalized node DP using item x"})
	assert.Contains(t, e.Log(), domain.Message{Severity: domain.SeverityNote, Text: "About to move node D"})
}

func TestEngine_PendingMoveScheduled(t *testing.T) {
	e := started(t, movementSetup())

	for e.State() != domain.StateEndMergeRound {
		require.NoError(t, e.GoForward(domain.DefaultAlternative))
	}
	moves := e.PendingMoves()
	require.Len(t, moves, 1)

	tr := e.Tree()
	for node, dest := range moves {
		assert.Equal(t, "D", tr.Name(node))
		assert.Equal(t, tr.Root(), dest)
	}
}

func TestEngine_ChoicePoint(t *testing.T) {
	e := started(t, sawSetup(entry("seen", "siːn", "V")))

	for e.State() != domain.StateListMatches {
		require.NoError(t, e.GoForward(domain.DefaultAlternative))
	}
	require.True(t, e.InChoiceState())
	assert.Equal(t, []domain.Alternative{
		{Label: "saw", Index: 0},
		{Label: "seen", Index: 1},
	}, e.Alternatives())

	before := snapshot(t, e)
	err := e.GoForward(7)
	assert.ErrorIs(t, err, domain.ErrInvalidAlternative)
	assert.Equal(t, before, snapshot(t, e), "a rejected alternative must not change the engine")

	require.NoError(t, e.GoForward(1))
	choice, ok := e.LastChoice()
	assert.True(t, ok)
	assert.Equal(t, 1, choice)

	runToEnd(t, e)
	assert.True(t, e.Success())
	assert.Equal(t, []string{"the", "seen"}, spellout(e))
}

func TestEngine_AlternativesOutsideChoice(t *testing.T) {
	e := started(t, sawSetup())

	assert.Equal(t, []domain.Alternative{{Label: "Default", Index: domain.DefaultAlternative}}, e.Alternatives())
	assert.False(t, e.InChoiceState())

	for e.State() != domain.StateListMatches {
		require.NoError(t, e.GoForward(domain.DefaultAlternative))
	}
	assert.Equal(t, []domain.Alternative{{Label: "saw", Index: 0}}, e.Alternatives())
	assert.False(t, e.InChoiceState(), "a single match is not a choice")
}

func TestEngine_HighlightsDuringMerge(t *testing.T) {
	e := started(t, sawSetup())

	for e.State() != domain.StateAnnounceExternalMerge {
		require.NoError(t, e.GoForward(domain.DefaultAlternative))
	}
	tr := e.Tree()
	assert.Equal(t, map[tree.NodeID]domain.Highlight{tr.Root(): domain.HighlightTarget}, e.HighlightedNodes())

	require.NoError(t, e.GoForward(domain.DefaultAlternative))
	tr = e.Tree()
	merged := tr.Child(tr.Root(), tree.Left)
	assert.Equal(t, map[tree.NodeID]domain.Highlight{merged: domain.HighlightFocus}, e.HighlightedNodes())
}

func TestEngine_QueriesAreCopies(t *testing.T) {
	e := started(t, sawSetup())
	runToEnd(t, e)

	tr := e.Tree()
	tr.SetChild(tr.Root(), tree.Left, tree.Nil)
	lex := e.Lexicalizations()
	for k := range lex {
		delete(lex, k)
	}
	log := e.Log()
	log[0].Text = "changed"

	assert.Equal(t, "DP(D, V)", tree.Format(e.Tree()))
	assert.Len(t, e.Lexicalizations(), 3)
	assert.Equal(t, "Algorithm started.", e.Log()[0].Text)
}

func TestEngine_Restart(t *testing.T) {
	e := started(t, sawSetup())
	runToEnd(t, e)

	require.NoError(t, e.Start(sawSetup()))
	assert.Equal(t, domain.StateJustStarted, e.State())
	assert.False(t, e.CanGoBack())
	assert.Len(t, e.Log(), 2)
	assert.Empty(t, e.Lexicalizations())
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var entered, left []domain.State
	var lexicalized []*domain.LexicalizeEvent
	var failures []string

	hooks := domain.LifecycleHooks{
		OnStateEnter: func(ev *domain.StateEvent) { entered = append(entered, ev.State) },
		OnStateLeave: func(ev *domain.StateEvent) { left = append(left, ev.State) },
		OnLexicalize: func(ev *domain.LexicalizeEvent) { lexicalized = append(lexicalized, ev) },
		OnFailure:    func(ev *domain.FailureEvent) { failures = append(failures, ev.Reason) },
	}

	e := started(t, movementSetup(), runtime.WithLifecycleHooks(hooks))
	require.Equal(t, []domain.State{domain.StateJustStarted}, entered)

	runToEnd(t, e)
	assert.Equal(t, domain.StateSuccess, entered[len(entered)-1])
	assert.Len(t, left, len(entered)-1)
	assert.Empty(t, failures)

	require.Len(t, lexicalized, 3)
	assert.Equal(t, "saw", lexicalized[0].Entry)
	assert.Equal(t, "the", lexicalized[1].Entry)
	assert.Equal(t, "x", lexicalized[2].Entry)
	assert.Equal(t, "D", lexicalized[2].Moved)
	assert.Equal(t, domain.EventLexicalize, lexicalized[2].Type)

	n := len(entered)
	require.NoError(t, e.GoBack())
	assert.Len(t, entered, n, "hooks do not fire while going back")

	failing := sawSetup()
	failing.Lexicon = failing.Lexicon[:1]
	f := started(t, failing, runtime.WithLifecycleHooks(hooks))
	runToEnd(t, f)
	assert.Equal(t, []string{"Children are not lexicalized either, lexicalization failed"}, failures)
}

func TestEngine_SeriesPolicy(t *testing.T) {
	setup := sawSetup()
	setup.Lexicon[1].ConceptualContent = []string{"DEF", "SG"}
	setup.ConceptualSeries = []string{"DEF"}

	loose := started(t, setup, runtime.WithSeriesPolicy(lexicon.IntersectingSeries))
	runToEnd(t, loose)
	assert.True(t, loose.Success())

	strict := started(t, setup, runtime.WithSeriesPolicy(lexicon.ExactSeries))
	runToEnd(t, strict)
	assert.Equal(t, domain.StateFailure, strict.State())
}
