package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/match"
	"github.com/aretw0/spellout/pkg/tree"
)

// Every primitive below mutates the engine and records the command that
// reverts it in the open undo frame.

func (e *Engine) record(c command) {
	if len(e.undo) == 0 {
		return
	}
	top := len(e.undo) - 1
	e.undo[top] = append(e.undo[top], c)
}

type mark struct {
	node      tree.NodeID
	highlight domain.Highlight
}

// highlight makes marks the complete highlight set.
func (e *Engine) highlight(marks ...mark) {
	keep := make(map[tree.NodeID]bool, len(marks))
	for _, m := range marks {
		keep[m.node] = true
	}

	// Removal order follows the tree so that recorded frames do not depend
	// on arena ids.
	var removed, detached []tree.NodeID
	for _, id := range e.tree.BFS() {
		if _, ok := e.highlights[id]; ok && !keep[id] {
			removed = append(removed, id)
		}
	}
	for id := range e.highlights {
		if !keep[id] && !slices.Contains(removed, id) {
			detached = append(detached, id)
		}
	}
	slices.Sort(detached)
	for _, id := range append(removed, detached...) {
		e.record(command{op: opHighlightNode, node: id, highlight: e.highlights[id]})
		delete(e.highlights, id)
	}

	for _, m := range marks {
		prev, ok := e.highlights[m.node]
		if ok && prev == m.highlight {
			continue
		}
		e.highlights[m.node] = m.highlight
		e.record(command{op: opHighlightNode, node: m.node, highlight: prev})
	}
}

func (e *Engine) clearHighlights() {
	e.highlight()
}

func (e *Engine) incrementRound() {
	e.round++
	e.record(command{op: opIncrementRound})
}

// externalMerge puts a copy of n and the current root under a new phrasal
// root projecting n's feature, and returns the copy.
func (e *Engine) externalMerge(n tree.Node) tree.NodeID {
	merged := e.tree.Add(n)
	root := e.tree.Add(tree.Phrasal(n.Feature, 0))
	e.tree.SetChild(root, tree.Left, merged)
	e.tree.SetChild(root, tree.Right, e.tree.Root())
	e.tree.SetRoot(root)
	e.record(command{op: opExternalMerge})
	return merged
}

// move re-merges node above its pending destination: a trace takes node's
// place, and a new phrasal projection of the destination, one degree up,
// takes the destination's slot with node on the left.
func (e *Engine) move(node tree.NodeID) error {
	dest, ok := e.pendingMoves[node]
	if !ok {
		return fmt.Errorf("node %s: %w", e.tree.Name(node), domain.ErrNotPendingMove)
	}
	srcParent, srcSide, ok := e.tree.Locate(node)
	if !ok {
		return fmt.Errorf("node %s is not part of the tree", e.tree.Name(node))
	}
	if srcParent == tree.Nil {
		return fmt.Errorf("node %s: %w", e.tree.Name(node), domain.ErrCannotMoveRoot)
	}
	destNode := e.tree.Node(dest)
	if destNode.Kind != tree.KindPhrasal {
		return fmt.Errorf("move destination %s is not a phrasal node", e.tree.Name(dest))
	}
	destParent, destSide, ok := e.tree.Locate(dest)
	if !ok {
		return fmt.Errorf("move destination %s is not part of the tree", e.tree.Name(dest))
	}

	e.record(command{op: opNodeMove, node: node, other: dest, parent: srcParent, side: srcSide, degree: destNode.Degree})

	e.tree.SetChild(srcParent, srcSide, e.tree.AddTrace(node))

	degree := destNode.Degree
	if degree == 0 {
		degree = 1
		e.tree.SetDegree(dest, degree)
	}
	phrasal := e.tree.Add(tree.Phrasal(destNode.Feature, degree+1))
	e.tree.SetChild(phrasal, tree.Left, node)
	e.tree.SetChild(phrasal, tree.Right, dest)
	if destParent == tree.Nil {
		e.tree.SetRoot(phrasal)
	} else {
		e.tree.SetChild(destParent, destSide, phrasal)
	}

	delete(e.pendingMoves, node)
	return nil
}

// lexicalize assigns m's entry to node, or no entry when m is nil. A match
// with movement schedules the moved subtree to be re-merged above node.
func (e *Engine) lexicalize(node tree.NodeID, m *match.Match) {
	c := command{op: opLexicalization, node: node, other: tree.Nil, parent: tree.Nil}
	ev := &domain.LexicalizeEvent{Node: e.tree.Name(node)}

	if m == nil {
		e.lexicalizations[node] = lexicon.NoEntry
	} else {
		e.lexicalizations[node] = m.Entry
		ev.Entry = e.setup.Lexicon[m.Entry].Name
		if m.Moved != tree.Nil {
			c.other = m.Moved
			if prev, ok := e.pendingMoves[m.Moved]; ok {
				c.parent = prev
			}
			e.pendingMoves[m.Moved] = node
			ev.Moved = e.tree.Name(m.Moved)
		}
	}
	e.record(c)
	e.lexicalized = ev
}

func (e *Engine) setLastChoice(choice int) {
	e.record(command{op: opSetLastChoice, choice: e.lastChoice})
	e.lastChoice = choice
}

func (e *Engine) logMessage(sev domain.Severity, text string) {
	e.log = append(e.log, domain.Message{Severity: sev, Text: text})
	e.record(command{op: opLogMessage})
}

func (e *Engine) note(text string) {
	e.logMessage(domain.SeverityNote, text)
}
