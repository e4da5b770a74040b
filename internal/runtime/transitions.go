package runtime

import (
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/tree"
)

const (
	reasonLexicalizationFailed = "Children are not lexicalized either, lexicalization failed"
	reasonNoTransition         = "Don't know how to proceed from this point"
)

// transitionArgs carries what the entry handler of the next state needs.
type transitionArgs struct {
	alternative int
	reason      string
}

// nextState is the transition function. It only reads the engine.
func (e *Engine) nextState(alternative int) (domain.State, transitionArgs) {
	args := transitionArgs{alternative: domain.DefaultAlternative}

	switch e.state {
	case domain.StateJustStarted:
		return domain.StateBeginMergeRound, args

	case domain.StateBeginMergeRound, domain.StateMovedNode:
		switch {
		case e.anyToMove():
			return domain.StateAnnounceMove, args
		case !e.isFinalRound():
			return domain.StateAnnounceExternalMerge, args
		case e.anyToLexicalize():
			return domain.StateAnnounceLexicalization, args
		default:
			return domain.StateLexicalizationDone, args
		}

	case domain.StateAnnounceMove:
		return domain.StateMovedNode, args

	case domain.StateAnnounceExternalMerge:
		return domain.StateMergedNode, args

	case domain.StateMergedNode, domain.StateLexicalizedNode:
		if e.anyToLexicalize() {
			return domain.StateAnnounceLexicalization, args
		}
		return domain.StateLexicalizationDone, args

	case domain.StateAnnounceLexicalization:
		return domain.StateListMatches, args

	case domain.StateListMatches:
		node := e.firstNonLexicalized()
		if node != tree.Nil && len(e.matcher.ForNode(e.tree, node)) == 0 && !e.childrenLexicalized(node) {
			args.reason = reasonLexicalizationFailed
			return domain.StateFailure, args
		}
		if node != tree.Nil {
			args.alternative = alternative
			return domain.StateLexicalizedNode, args
		}

	case domain.StateLexicalizationDone:
		return domain.StateEndMergeRound, args

	case domain.StateEndMergeRound:
		if e.isFinalRound() {
			return domain.StateSuccess, args
		}
		return domain.StateBeginMergeRound, args
	}

	args.reason = reasonNoTransition
	return domain.StateFailure, args
}

func (e *Engine) isFinalRound() bool {
	return e.round == len(e.setup.ExternalMerges)+1
}

func (e *Engine) anyToMove() bool {
	return len(e.pendingMoves) > 0
}

func (e *Engine) anyToLexicalize() bool {
	return e.firstNonLexicalized() != tree.Nil
}

// firstNonLexicalized picks the next node to lexicalize: the last node in
// breadth-first order that is neither a trace nor lexicalized. The root is
// exempt in the final round.
func (e *Engine) firstNonLexicalized() tree.NodeID {
	order := e.tree.BFS()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if e.tree.Node(id).Kind == tree.KindTrace || e.isLexicalized(id) {
			continue
		}
		if id == e.tree.Root() && e.isFinalRound() {
			return tree.Nil
		}
		return id
	}
	return tree.Nil
}

// firstNodeToMove is the last node in breadth-first order with a pending move.
func (e *Engine) firstNodeToMove() tree.NodeID {
	order := e.tree.BFS()
	for i := len(order) - 1; i >= 0; i-- {
		if _, ok := e.pendingMoves[order[i]]; ok {
			return order[i]
		}
	}
	return tree.Nil
}

func (e *Engine) isLexicalized(id tree.NodeID) bool {
	_, ok := e.lexicalizations[id]
	return ok
}

func (e *Engine) childrenLexicalized(id tree.NodeID) bool {
	children := e.tree.Children(id)
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if !e.isLexicalized(c) {
			return false
		}
	}
	return true
}
