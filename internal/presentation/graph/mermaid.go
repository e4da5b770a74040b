package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
)

// GraphOverlay contains dynamic derivation data to visualize on the tree.
type GraphOverlay struct {
	Highlights map[tree.NodeID]domain.Highlight
	// Lexicalizations maps nodes to the entry name they were lexicalized
	// with; an empty name means lexicalized to nothing.
	Lexicalizations map[tree.NodeID]string
	PendingMoves    map[tree.NodeID]tree.NodeID
}

// GenerateMermaid produces a Mermaid flowchart of t, top-down.
// It applies semantic styling:
// - Phrasal: (Rounded)
// - Feature: [Rectangle]
// - Trace: [/Parallelogram/] with a dotted arrow to the moved node
// It also applies overlay styles (highlights, lexicalized nodes, pending moves) if provided.
// Mermaid ids follow breadth-first order, so the output is stable across
// clones and decoded snapshots.
func GenerateMermaid(t *tree.Tree, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if t == nil {
		return sb.String()
	}

	order := t.BFS()
	ids := make(map[tree.NodeID]string, len(order))
	for i, id := range order {
		ids[id] = fmt.Sprintf("n%d", i+1)
	}

	for _, id := range order {
		n := t.Node(id)
		label := t.Name(id)
		if overlay != nil {
			if entry, ok := overlay.Lexicalizations[id]; ok {
				if entry == "" {
					entry = "∅"
				}
				label = fmt.Sprintf("%s <br/> %s", label, escape(entry))
			}
		}

		opener, closer := "[", "]"
		switch n.Kind {
		case tree.KindPhrasal:
			opener, closer = "(", ")"
		case tree.KindTrace:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids[id], opener, label, closer)

		for _, child := range t.Children(id) {
			fmt.Fprintf(&sb, "    %s --> %s\n", ids[id], ids[child])
		}
		if n.Kind == tree.KindTrace {
			if target, ok := ids[n.Of()]; ok {
				fmt.Fprintf(&sb, "    %s -.-> %s\n", ids[id], target)
			}
		}
	}

	if overlay == nil {
		return sb.String()
	}

	for _, node := range sortedByOrder(overlay.PendingMoves, ids) {
		dest := overlay.PendingMoves[node]
		if to, ok := ids[dest]; ok {
			fmt.Fprintf(&sb, "    %s -. \"move\" .-> %s\n", ids[node], to)
		}
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef lexicalized fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef target fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef source fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef focus fill:#c8e6c9,stroke:#2e7d32,stroke-width:4px,color:#000;\n")

	for _, node := range sortedByOrder(overlay.Lexicalizations, ids) {
		fmt.Fprintf(&sb, "    class %s lexicalized;\n", ids[node])
	}
	// Highlights come last so they win over the lexicalized style.
	for _, node := range sortedByOrder(overlay.Highlights, ids) {
		fmt.Fprintf(&sb, "    class %s %s;\n", ids[node], className(overlay.Highlights[node]))
	}

	return sb.String()
}

func className(h domain.Highlight) string {
	switch h {
	case domain.HighlightTarget:
		return "target"
	case domain.HighlightSource:
		return "source"
	default:
		return "focus"
	}
}

// sortedByOrder returns the keys of m that are in the tree, in BFS order.
func sortedByOrder[V any](m map[tree.NodeID]V, ids map[tree.NodeID]string) []tree.NodeID {
	keys := make([]tree.NodeID, 0, len(m))
	for k := range m {
		if _, ok := ids[k]; ok {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b tree.NodeID) int {
		return compareIDs(ids[a], ids[b])
	})
	return keys
}

// compareIDs orders "n2" before "n10".
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// Derivation is the read side of an engine the overlay is built from.
type Derivation interface {
	Setup() *lexicon.Setup
	HighlightedNodes() map[tree.NodeID]domain.Highlight
	Lexicalizations() map[tree.NodeID]int
	PendingMoves() map[tree.NodeID]tree.NodeID
}

// OverlayOf captures the current highlights, lexicalizations and pending
// moves of d, resolving lexicon indices to entry names.
func OverlayOf(d Derivation) *GraphOverlay {
	o := &GraphOverlay{
		Highlights:   d.HighlightedNodes(),
		PendingMoves: d.PendingMoves(),
	}
	lex := d.Lexicalizations()
	if len(lex) == 0 {
		return o
	}
	var entries []lexicon.Entry
	if setup := d.Setup(); setup != nil {
		entries = setup.Lexicon
	}
	o.Lexicalizations = make(map[tree.NodeID]string, len(lex))
	for id, idx := range lex {
		name := ""
		if idx != lexicon.NoEntry && idx < len(entries) {
			name = entries[idx].Name
		}
		o.Lexicalizations[id] = name
	}
	return o
}
