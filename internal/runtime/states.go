package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/tree"
)

// switchState runs the entry handler of next and then records the state
// change, so that undo restores the state before reverting the handler.
func (e *Engine) switchState(next domain.State, args transitionArgs) error {
	if err := e.enter(next, args); err != nil {
		return err
	}
	prev := e.state
	e.state = next
	e.record(command{op: opSwitchState, state: prev})
	return nil
}

func (e *Engine) enter(s domain.State, args transitionArgs) error {
	switch s {
	case domain.StateJustStarted:
		e.enterJustStarted()
	case domain.StateBeginMergeRound:
		e.enterBeginMergeRound()
	case domain.StateAnnounceMove:
		e.enterAnnounceMove()
	case domain.StateMovedNode:
		return e.enterMovedNode()
	case domain.StateAnnounceExternalMerge:
		e.enterAnnounceExternalMerge()
	case domain.StateMergedNode:
		e.enterMergedNode()
	case domain.StateAnnounceLexicalization:
		e.enterAnnounceLexicalization()
	case domain.StateListMatches:
		e.enterListMatches()
	case domain.StateLexicalizedNode:
		return e.enterLexicalizedNode(args.alternative)
	case domain.StateLexicalizationDone:
		e.clearHighlights()
		e.note("All nodes lexicalized")
	case domain.StateEndMergeRound:
		e.clearHighlights()
		e.note("End of " + e.roundName())
	case domain.StateSuccess:
		e.enterSuccess()
	case domain.StateFailure:
		e.logMessage(domain.SeverityError, "FAILURE: "+args.reason)
	default:
		return fmt.Errorf("state %s has no entry handler", s)
	}
	return nil
}

func (e *Engine) enterJustStarted() {
	e.undo = nil
	e.tree = tree.New(e.setup.InitialNode)
	e.round = 0
	e.log = nil
	e.resetMaps()
	e.lastChoice = NoChoice
	e.note("Algorithm started.")
	e.note("Initial tree consists of node " + e.setup.InitialNode.Name())
}

func (e *Engine) enterBeginMergeRound() {
	e.incrementRound()
	e.clearHighlights()
	e.note("Beginning of " + e.roundName())
}

func (e *Engine) enterAnnounceMove() {
	node := e.firstNodeToMove()
	e.highlight(mark{node, domain.HighlightSource}, mark{e.pendingMoves[node], domain.HighlightTarget})
	e.note("About to move node " + e.tree.Name(node))
}

func (e *Engine) enterMovedNode() error {
	node := e.firstNodeToMove()
	if err := e.move(node); err != nil {
		return err
	}
	e.highlight(mark{node, domain.HighlightTarget})
	e.note("Moved node " + e.tree.Name(node))
	return nil
}

func (e *Engine) currentMerge() string {
	return e.setup.ExternalMerges[e.round-1].Name()
}

func (e *Engine) enterAnnounceExternalMerge() {
	e.highlight(mark{e.tree.Root(), domain.HighlightTarget})
	e.note("About to perform external merge of node " + e.currentMerge())
}

func (e *Engine) enterMergedNode() {
	merged := e.externalMerge(e.setup.ExternalMerges[e.round-1])
	e.highlight(mark{merged, domain.HighlightFocus})
	e.note("Merged node " + e.currentMerge())
}

func (e *Engine) enterAnnounceLexicalization() {
	node := e.firstNonLexicalized()
	e.highlight(mark{node, domain.HighlightFocus})
	e.note("About to lexicalize node " + e.tree.Name(node))
}

func (e *Engine) enterListMatches() {
	node := e.firstNonLexicalized()
	e.highlight(mark{node, domain.HighlightFocus})

	matches := e.matcher.ForNode(e.tree, node)
	if len(matches) == 0 {
		e.logMessage(domain.SeverityWarning, "No matches for this node")
		return
	}
	labels := make([]string, len(matches))
	for i, m := range matches {
		labels[i] = m.Description(e.setup, e.tree)
	}
	e.note("Matches: " + strings.Join(labels, ", "))
}

func (e *Engine) enterLexicalizedNode(alternative int) error {
	node := e.firstNonLexicalized()
	e.highlight(mark{node, domain.HighlightFocus})

	matches := e.matcher.ForNode(e.tree, node)
	if len(matches) == 0 {
		e.lexicalize(node, nil)
		e.note("OK, since children are lexicalized")
		return nil
	}

	if alternative == domain.DefaultAlternative {
		alternative = 0
	}
	if alternative < 0 || alternative >= len(matches) {
		return fmt.Errorf("%w %d", domain.ErrInvalidAlternative, alternative)
	}

	chosen := matches[alternative]
	e.lexicalize(node, &chosen)
	if len(matches) > 1 {
		e.setLastChoice(alternative)
	}
	e.note(fmt.Sprintf("Lexicalized node %s using item %s", e.tree.Name(node), e.setup.Lexicon[chosen.Entry].Name))
	return nil
}

func (e *Engine) enterSuccess() {
	e.clearHighlights()
	e.note("Algorithm completed successfully")

	entries := e.Spellout()
	names := make([]string, len(entries))
	phon := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
		phon[i] = entry.PhonologicalContent
	}
	e.note(fmt.Sprintf("Spell-out: %s (/%s/)", strings.Join(names, "+"), strings.Join(phon, " ")))
}

func (e *Engine) roundName() string {
	if e.isFinalRound() {
		return "final cleanup round"
	}
	return fmt.Sprintf("external merge round no.%d", e.round)
}
