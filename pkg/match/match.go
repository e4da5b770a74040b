// Package match finds the lexicon entries able to lexicalize a node of a
// derivation tree, ranked by how tightly their pattern fits.
package match

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
)

// Match pairs a lexicon entry with the number of pattern nodes it covers
// beyond the matched subtree. Moved is the subtree that must be re-merged
// above the lexicalized node if the match is chosen, or tree.Nil.
type Match struct {
	Entry  int
	Extras int
	Moved  tree.NodeID
}

// Description renders the match the way choice lists show it, e.g.
// "the", "the (2 extras)" or "saw (moving DP, 1 extras)".
func (m Match) Description(setup *lexicon.Setup, t *tree.Tree) string {
	var sb strings.Builder
	sb.WriteString(setup.Lexicon[m.Entry].Name)
	if m.Moved == tree.Nil {
		if m.Extras > 0 {
			fmt.Fprintf(&sb, " (%d extras)", m.Extras)
		}
		return sb.String()
	}
	fmt.Fprintf(&sb, " (moving %s", t.Name(m.Moved))
	if m.Extras > 0 {
		fmt.Fprintf(&sb, ", %d extras", m.Extras)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Matcher computes matches against the accessible part of a lexicon.
type Matcher struct {
	setup      *lexicon.Setup
	accessible []int
}

// New returns a matcher over the entries of setup admitted by policy.
func New(setup *lexicon.Setup, policy lexicon.SeriesPolicy) *Matcher {
	return &Matcher{setup: setup, accessible: setup.Accessible(policy)}
}

// ForNode returns the matches without movement, sorted, followed by the
// matches found with one movement.
func (m *Matcher) ForNode(t *tree.Tree, node tree.NodeID) []Match {
	return append(m.WithoutMovement(t, node), m.WithOneMovement(t, node)...)
}

// WithoutMovement scans every accessible pattern breadth-first. Each
// pattern node whose signature equals node's yields a match. The result is
// stably sorted by extras.
func (m *Matcher) WithoutMovement(t *tree.Tree, node tree.NodeID) []Match {
	sig, ok := t.Signature(node)
	if !ok {
		return nil
	}
	var out []Match
	for _, idx := range m.accessible {
		pattern := m.setup.Lexicon[idx].Tree
		size := pattern.Size()
		for _, p := range pattern.BFS() {
			psig, ok := pattern.Signature(p)
			if !ok || !psig.Equal(sig) {
				continue
			}
			out = append(out, Match{Entry: idx, Extras: size - pattern.SubtreeSize(p), Moved: tree.Nil})
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int { return a.Extras - b.Extras })
	return out
}

// WithOneMovement detaches, one at a time, every child slot in node's
// subtree, recomputes WithoutMovement and tags the results with the
// detached child. Each child is re-attached before the next trial, so t is
// unchanged on return. Traces are not tried: they have already moved and
// carry no signature.
func (m *Matcher) WithOneMovement(t *tree.Tree, node tree.NodeID) []Match {
	var out []Match
	for _, parent := range t.BFSFrom(node) {
		for _, side := range tree.Sides {
			child := t.Child(parent, side)
			if child == tree.Nil || t.Node(child).Kind == tree.KindTrace {
				continue
			}
			t.SetChild(parent, side, tree.Nil)
			for _, found := range m.WithoutMovement(t, node) {
				found.Moved = child
				out = append(out, found)
			}
			t.SetChild(parent, side, child)
		}
	}
	return out
}
