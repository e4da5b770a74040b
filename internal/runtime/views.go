package runtime

import (
	"maps"
	"slices"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
)

// Read accessors return copies. Node ids in the maps are valid against the
// tree returned by Tree, since Tree.Clone preserves ids.

// State returns the current state.
func (e *Engine) State() domain.State {
	return e.state
}

// Round returns the external merge round counter.
func (e *Engine) Round() int {
	return e.round
}

// Success reports whether the derivation completed successfully.
func (e *Engine) Success() bool {
	return e.state == domain.StateSuccess
}

// Setup returns a copy of the setup the derivation was started with, or nil.
func (e *Engine) Setup() *lexicon.Setup {
	if e.setup == nil {
		return nil
	}
	return e.setup.Clone()
}

// Tree returns a copy of the derivation tree, or nil before Start.
func (e *Engine) Tree() *tree.Tree {
	if e.tree == nil {
		return nil
	}
	return e.tree.Clone()
}

// Log returns a copy of the derivation log.
func (e *Engine) Log() []domain.Message {
	return slices.Clone(e.log)
}

// HighlightedNodes returns a copy of the highlight map.
func (e *Engine) HighlightedNodes() map[tree.NodeID]domain.Highlight {
	return maps.Clone(e.highlights)
}

// Lexicalizations maps lexicalized nodes to lexicon indices, or to
// lexicon.NoEntry for nodes lexicalized to nothing.
func (e *Engine) Lexicalizations() map[tree.NodeID]int {
	return maps.Clone(e.lexicalizations)
}

// PendingMoves maps nodes scheduled for movement to their destination.
func (e *Engine) PendingMoves() map[tree.NodeID]tree.NodeID {
	return maps.Clone(e.pendingMoves)
}

// LastChoice returns the alternative taken at the latest real choice point.
func (e *Engine) LastChoice() (int, bool) {
	return e.lastChoice, e.lastChoice != NoChoice
}

// Alternatives lists the choices for the next GoForward. While matches are
// listed for a node, each match is one alternative; otherwise a single
// default alternative is offered.
func (e *Engine) Alternatives() []domain.Alternative {
	if e.state == domain.StateListMatches {
		if node := e.firstNonLexicalized(); node != tree.Nil {
			matches := e.matcher.ForNode(e.tree, node)
			if len(matches) > 0 {
				out := make([]domain.Alternative, len(matches))
				for i, m := range matches {
					out[i] = domain.Alternative{Label: m.Description(e.setup, e.tree), Index: i}
				}
				return out
			}
		}
	}
	return []domain.Alternative{{Label: "Default", Index: domain.DefaultAlternative}}
}

// InChoiceState reports whether the next step picks among several matches.
func (e *Engine) InChoiceState() bool {
	return e.state == domain.StateListMatches && len(e.Alternatives()) > 1
}

// Spellout reads the lexical items off the tree top-down, left to right.
// The first node on each path lexicalized to an entry is emitted and its
// subtree skipped; other nodes are transparent.
func (e *Engine) Spellout() []lexicon.Entry {
	if e.tree == nil {
		return nil
	}
	var out []lexicon.Entry
	var walk func(id tree.NodeID)
	walk = func(id tree.NodeID) {
		if idx, ok := e.lexicalizations[id]; ok && idx != lexicon.NoEntry {
			out = append(out, e.setup.Lexicon[idx].Clone())
			return
		}
		for _, c := range e.tree.Children(id) {
			walk(c)
		}
	}
	walk(e.tree.Root())
	return out
}
