package tree

import "fmt"

// Kind discriminates the closed set of node variants.
type Kind uint8

const (
	KindFeature Kind = iota + 1
	KindPhrasal
	KindTrace
	KindPlaceholder
)

// String returns the interchange name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFeature:
		return "FeatureNode"
	case KindPhrasal:
		return "PhrasalNode"
	case KindTrace:
		return "TraceNode"
	case KindPlaceholder:
		return "PlaceholderNode"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "FeatureNode":
		return KindFeature, nil
	case "PhrasalNode":
		return KindPhrasal, nil
	case "TraceNode":
		return KindTrace, nil
	case "PlaceholderNode":
		return KindPlaceholder, nil
	}
	return 0, fmt.Errorf("unsupported node type %q", s)
}

// NodeID identifies a node inside the arena of a single Tree.
type NodeID int32

// Nil is the absent node.
const Nil NodeID = -1

// Side selects a child slot.
type Side uint8

const (
	Left Side = iota
	Right
)

// Sides lists the child slots in traversal order.
var Sides = [2]Side{Left, Right}

// Node is a single tree node. The link fields are owned by the Tree that
// stores the node; a Node value handed out by constructors is a leaf with no
// links and no trace target.
type Node struct {
	Kind    Kind
	Feature string
	Degree  int

	of    NodeID
	left  NodeID
	right NodeID
}

// Feature returns a feature (head) node.
func Feature(feature string) Node {
	return Node{Kind: KindFeature, Feature: feature, of: Nil, left: Nil, right: Nil}
}

// Phrasal returns a phrasal projection of feature at the given bar degree.
func Phrasal(feature string, degree int) Node {
	return Node{Kind: KindPhrasal, Feature: feature, Degree: degree, of: Nil, left: Nil, right: Nil}
}

// Placeholder returns a node standing for not yet filled-in input.
func Placeholder() Node {
	return Node{Kind: KindPlaceholder, of: Nil, left: Nil, right: Nil}
}

func trace(of NodeID) Node {
	return Node{Kind: KindTrace, of: of, left: Nil, right: Nil}
}

// Of returns the node a trace stands for, or Nil for other kinds.
func (n Node) Of() NodeID {
	if n.Kind != KindTrace {
		return Nil
	}
	return n.of
}

// OwnSignature is the head token of the node's signature. Traces and
// placeholders have none.
func (n Node) OwnSignature() (string, bool) {
	switch n.Kind {
	case KindFeature:
		return n.Feature, true
	case KindPhrasal:
		return n.Feature + "P", true
	}
	return "", false
}

// Clone copies the node's values without any links.
func (n Node) Clone() Node {
	c := n
	c.of, c.left, c.right = Nil, Nil, Nil
	return c
}

func (n Node) child(side Side) NodeID {
	if side == Left {
		return n.left
	}
	return n.right
}

func (n *Node) setChild(side Side, id NodeID) {
	if side == Left {
		n.left = id
	} else {
		n.right = id
	}
}

// Name is the display name of the node. A trace's full name depends on its
// target and is only available through Tree.Name.
func (n Node) Name() string {
	switch n.Kind {
	case KindFeature:
		return n.Feature
	case KindPhrasal:
		if n.Degree == 0 {
			return n.Feature + "P"
		}
		return fmt.Sprintf("%sP%d", n.Feature, n.Degree)
	case KindPlaceholder:
		return "..."
	case KindTrace:
		return "t"
	}
	return ""
}
