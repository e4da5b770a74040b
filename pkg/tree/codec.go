package tree

import (
	"errors"
	"fmt"
)

// ErrMalformedDoc is wrapped by every decoding failure.
var ErrMalformedDoc = errors.New("malformed tree document")

// NodeDoc is the interchange form of a node and, recursively, its subtree.
// ID is the node's 1-based breadth-first position and is only present inside
// a Doc; OfNode refers to such an ID.
type NodeDoc struct {
	Type    string   `json:"type"`
	Feature string   `json:"feature,omitempty"`
	Degree  *int     `json:"degree,omitempty"`
	OfNode  *int     `json:"of_node,omitempty"`
	ID      int      `json:"id,omitempty"`
	Left    *NodeDoc `json:"left,omitempty"`
	Right   *NodeDoc `json:"right,omitempty"`
}

// Doc is the interchange form of a whole tree.
type Doc struct {
	Root *NodeDoc `json:"root"`
}

// Encode converts t into a Doc. A nil tree encodes to nil.
func Encode(t *Tree) *Doc {
	if t == nil {
		return nil
	}
	ids := make(map[NodeID]int)
	for i, id := range t.BFS() {
		ids[id] = i + 1
	}
	return &Doc{Root: t.encode(t.root, ids)}
}

func (t *Tree) encode(id NodeID, ids map[NodeID]int) *NodeDoc {
	if id == Nil {
		return nil
	}
	n := t.nodes[id]
	doc := EncodeNode(n)
	doc.ID = ids[id]
	if n.Kind == KindTrace {
		of := ids[n.of]
		doc.OfNode = &of
	}
	doc.Left = t.encode(n.left, ids)
	doc.Right = t.encode(n.right, ids)
	return doc
}

// EncodeNode converts a single unlinked node.
func EncodeNode(n Node) *NodeDoc {
	doc := &NodeDoc{Type: n.Kind.String()}
	switch n.Kind {
	case KindFeature:
		doc.Feature = n.Feature
	case KindPhrasal:
		degree := n.Degree
		doc.Feature = n.Feature
		doc.Degree = &degree
	}
	return doc
}

// DecodeNode converts a standalone node document. Children and traces are
// rejected.
func DecodeNode(doc *NodeDoc) (Node, error) {
	if doc == nil {
		return Node{}, fmt.Errorf("%w: missing node", ErrMalformedDoc)
	}
	if doc.Left != nil || doc.Right != nil {
		return Node{}, fmt.Errorf("%w: expected a single node, got a subtree", ErrMalformedDoc)
	}
	n, err := decodeValue(doc)
	if err != nil {
		return Node{}, err
	}
	if n.Kind == KindTrace {
		return Node{}, fmt.Errorf("%w: a trace cannot stand alone", ErrMalformedDoc)
	}
	return n, nil
}

func decodeValue(doc *NodeDoc) (Node, error) {
	kind, err := ParseKind(doc.Type)
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrMalformedDoc, err)
	}
	switch kind {
	case KindFeature:
		if doc.Feature == "" {
			return Node{}, fmt.Errorf("%w: FeatureNode without feature", ErrMalformedDoc)
		}
		return Feature(doc.Feature), nil
	case KindPhrasal:
		if doc.Feature == "" || doc.Degree == nil {
			return Node{}, fmt.Errorf("%w: PhrasalNode requires feature and degree", ErrMalformedDoc)
		}
		return Phrasal(doc.Feature, *doc.Degree), nil
	case KindTrace:
		if doc.OfNode == nil {
			return Node{}, fmt.Errorf("%w: TraceNode without of_node", ErrMalformedDoc)
		}
		return trace(Nil), nil
	default:
		return Placeholder(), nil
	}
}

type pendingTrace struct {
	id NodeID
	of int
}

// Decode rebuilds a tree from a Doc in two passes: nodes and child links
// first, then trace targets resolved through the document ids.
func Decode(doc *Doc) (*Tree, error) {
	if doc == nil || doc.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrMalformedDoc)
	}
	t := &Tree{}
	ids := make(map[int]NodeID)
	var traces []pendingTrace

	root, err := t.decode(doc.Root, ids, &traces)
	if err != nil {
		return nil, err
	}
	t.root = root

	for _, p := range traces {
		target, ok := ids[p.of]
		if !ok {
			return nil, fmt.Errorf("%w: trace refers to unknown node id %d", ErrMalformedDoc, p.of)
		}
		t.nodes[p.id].of = target
	}
	return t, nil
}

func (t *Tree) decode(doc *NodeDoc, ids map[int]NodeID, traces *[]pendingTrace) (NodeID, error) {
	n, err := decodeValue(doc)
	if err != nil {
		return Nil, err
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)

	if doc.ID != 0 {
		if _, dup := ids[doc.ID]; dup {
			return Nil, fmt.Errorf("%w: duplicate node id %d", ErrMalformedDoc, doc.ID)
		}
		ids[doc.ID] = id
	}
	if n.Kind == KindTrace {
		*traces = append(*traces, pendingTrace{id: id, of: *doc.OfNode})
	}

	for side, child := range [2]*NodeDoc{doc.Left, doc.Right} {
		if child == nil {
			continue
		}
		c, err := t.decode(child, ids, traces)
		if err != nil {
			return Nil, err
		}
		t.nodes[id].setChild(Side(side), c)
	}
	return id, nil
}
