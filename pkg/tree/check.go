package tree

import (
	"fmt"
	"sort"
)

// CheckError describes why a tree is not acceptable as finished input.
type CheckError struct {
	Node   string
	Reason string
}

func (e *CheckError) Error() string {
	if e.Node == "" {
		return e.Reason
	}
	return fmt.Sprintf("node %s: %s", e.Node, e.Reason)
}

// Check validates the structural invariants of a finished tree:
//   - no placeholder remains,
//   - every phrasal node has at least one child,
//   - every trace points at a node of the tree,
//   - per feature, phrasal degrees are gapless and degrees 0 and 1 (the
//     same bar level) do not both occur.
func (t *Tree) Check() error {
	degrees := make(map[string]map[int]bool)

	for _, id := range t.BFS() {
		n := t.nodes[id]
		switch n.Kind {
		case KindPlaceholder:
			return &CheckError{Reason: "some nodes are still not filled in"}
		case KindPhrasal:
			if len(t.Children(id)) == 0 {
				return &CheckError{Node: t.Name(id), Reason: "phrasal node must have at least one child"}
			}
			if degrees[n.Feature] == nil {
				degrees[n.Feature] = make(map[int]bool)
			}
			degrees[n.Feature][n.Degree] = true
		case KindTrace:
			if n.of == Nil || !t.Contains(n.of) {
				return &CheckError{Node: "t", Reason: "trace refers to a node outside the tree"}
			}
		}
	}

	features := make([]string, 0, len(degrees))
	for f := range degrees {
		features = append(features, f)
	}
	sort.Strings(features)

	for _, f := range features {
		present := degrees[f]
		if present[0] && present[1] {
			return &CheckError{Node: f + "P", Reason: "appears both unqualified and with degree 1"}
		}
		levels := make([]int, 0, len(present))
		for d := range present {
			levels = append(levels, d)
		}
		sort.Ints(levels)
		for _, d := range levels {
			if d > 1 && !present[d-1] {
				return &CheckError{Node: f + "P", Reason: fmt.Sprintf("appears with degree %d but not %d", d, d-1)}
			}
		}
	}
	return nil
}
