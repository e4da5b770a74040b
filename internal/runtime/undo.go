package runtime

import (
	"fmt"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/tree"
)

// undoOp names a compensating command.
type undoOp uint8

const (
	opSwitchState undoOp = iota + 1
	opHighlightNode
	opIncrementRound
	opExternalMerge
	opNodeMove
	opLexicalization
	opSetLastChoice
	opLogMessage
)

var opNames = map[undoOp]string{
	opSwitchState:    "undo_switch_state",
	opHighlightNode:  "undo_highlight_node",
	opIncrementRound: "undo_increment_round_counter",
	opExternalMerge:  "undo_external_merge",
	opNodeMove:       "undo_node_move",
	opLexicalization: "undo_lexicalization",
	opSetLastChoice:  "undo_set_last_choice",
	opLogMessage:     "undo_log_message",
}

func (op undoOp) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("undoOp(%d)", uint8(op))
}

func parseUndoOp(name string) (undoOp, bool) {
	for op, n := range opNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// command is one compensating action. Which fields are meaningful depends
// on op:
//
//	undo_switch_state          state
//	undo_highlight_node        node, highlight ("" when there was none)
//	undo_node_move             node, other (destination), parent and side
//	                           (source slot), degree (destination's degree)
//	undo_lexicalization        node, other (moved subtree or Nil),
//	                           parent (its previous destination or Nil)
//	undo_set_last_choice       choice
type command struct {
	op        undoOp
	node      tree.NodeID
	other     tree.NodeID
	parent    tree.NodeID
	side      tree.Side
	degree    int
	state     domain.State
	highlight domain.Highlight
	choice    int
}

// frame holds the commands recorded by one GoForward, oldest first.
type frame []command

func (e *Engine) apply(c command) {
	switch c.op {
	case opSwitchState:
		e.state = c.state

	case opHighlightNode:
		if c.highlight == "" {
			delete(e.highlights, c.node)
		} else {
			e.highlights[c.node] = c.highlight
		}

	case opIncrementRound:
		e.round--

	case opExternalMerge:
		e.tree.SetRoot(e.tree.Child(e.tree.Root(), tree.Right))

	case opNodeMove:
		phrasal, _, _ := e.tree.Locate(c.other)
		parent, side, _ := e.tree.Locate(phrasal)
		if parent == tree.Nil {
			e.tree.SetRoot(c.other)
		} else {
			e.tree.SetChild(parent, side, c.other)
		}
		e.tree.SetDegree(c.other, c.degree)
		e.tree.SetChild(c.parent, c.side, c.node)
		e.pendingMoves[c.node] = c.other

	case opLexicalization:
		delete(e.lexicalizations, c.node)
		if c.other != tree.Nil {
			if c.parent != tree.Nil {
				e.pendingMoves[c.other] = c.parent
			} else {
				delete(e.pendingMoves, c.other)
			}
		}

	case opSetLastChoice:
		e.lastChoice = c.choice

	case opLogMessage:
		e.log = e.log[:len(e.log)-1]
	}
}
