package tree

// Tree owns a binary tree of nodes stored in an arena. Node identity is the
// arena index; detached nodes stay in the arena so that identities remain
// stable while a derivation is stepped back and forth.
type Tree struct {
	nodes []Node
	root  NodeID
}

// New creates a tree consisting of a single root node.
func New(root Node) *Tree {
	t := &Tree{}
	t.root = t.Add(root)
	return t
}

// Root returns the current root.
func (t *Tree) Root() NodeID {
	return t.root
}

// SetRoot installs id as the new root.
func (t *Tree) SetRoot(id NodeID) {
	t.root = id
}

// Node returns a copy of the node stored under id.
func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

// Add stores an unlinked copy of n in the arena and returns its id. Traces
// are created with AddTrace.
func (t *Tree) Add(n Node) NodeID {
	t.nodes = append(t.nodes, n.Clone())
	return NodeID(len(t.nodes) - 1)
}

// AddTrace stores a new trace standing for of.
func (t *Tree) AddTrace(of NodeID) NodeID {
	t.nodes = append(t.nodes, trace(of))
	return NodeID(len(t.nodes) - 1)
}

// Attach adds n and links it as the side child of parent.
func (t *Tree) Attach(parent NodeID, side Side, n Node) NodeID {
	id := t.Add(n)
	t.SetChild(parent, side, id)
	return id
}

// Child returns the child in the given slot, or Nil.
func (t *Tree) Child(id NodeID, side Side) NodeID {
	return t.nodes[id].child(side)
}

// SetChild links child (possibly Nil) into the given slot of id.
func (t *Tree) SetChild(id NodeID, side Side, child NodeID) {
	t.nodes[id].setChild(side, child)
}

// Children returns the present children, left first.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for _, side := range Sides {
		if c := t.Child(id, side); c != Nil {
			out = append(out, c)
		}
	}
	return out
}

// SetDegree changes the bar degree of a phrasal node.
func (t *Tree) SetDegree(id NodeID, degree int) {
	t.nodes[id].Degree = degree
}

// BFS enumerates the nodes reachable from the root breadth-first, left
// child before right child.
func (t *Tree) BFS() []NodeID {
	return t.BFSFrom(t.root)
}

// BFSFrom enumerates the subtree rooted at id breadth-first.
func (t *Tree) BFSFrom(id NodeID) []NodeID {
	if id == Nil {
		return nil
	}
	queue := []NodeID{id}
	for i := 0; i < len(queue); i++ {
		queue = append(queue, t.Children(queue[i])...)
	}
	return queue
}

// Locate finds the parent slot holding id. The root yields (Nil, Left,
// true); a node that is not reachable yields ok == false.
func (t *Tree) Locate(id NodeID) (parent NodeID, side Side, ok bool) {
	if id == t.root {
		return Nil, Left, true
	}
	for _, p := range t.BFS() {
		for _, s := range Sides {
			if t.Child(p, s) == id {
				return p, s, true
			}
		}
	}
	return Nil, Left, false
}

// Contains reports whether id is reachable from the root.
func (t *Tree) Contains(id NodeID) bool {
	_, _, ok := t.Locate(id)
	return ok
}

// Index returns the 0-based breadth-first position of id, or -1.
func (t *Tree) Index(id NodeID) int {
	for i, n := range t.BFS() {
		if n == id {
			return i
		}
	}
	return -1
}

// SubtreeSize counts the nodes under id, id included. Traces count as zero.
func (t *Tree) SubtreeSize(id NodeID) int {
	if t.nodes[id].Kind == KindTrace {
		return 0
	}
	size := 1
	for _, c := range t.Children(id) {
		size += t.SubtreeSize(c)
	}
	return size
}

// Size is the subtree size of the root.
func (t *Tree) Size() int {
	return t.SubtreeSize(t.root)
}

// Name returns the display name of id, resolving trace targets.
func (t *Tree) Name(id NodeID) string {
	n := t.nodes[id]
	if n.Kind == KindTrace {
		if n.of == Nil {
			return "t?"
		}
		return "t" + t.Name(n.of)
	}
	return n.Name()
}

// Clone deep-copies the tree. Ids are preserved, so maps keyed by NodeID
// remain valid against the clone, while the clone shares no storage with t.
func (t *Tree) Clone() *Tree {
	nodes := make([]Node, len(t.nodes))
	copy(nodes, t.nodes)
	return &Tree{nodes: nodes, root: t.root}
}

// Equal reports whether both trees have the same reachable shape: node
// values, child slots and trace targets, compared breadth-first.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	a, b := t.BFS(), o.BFS()
	if len(a) != len(b) {
		return false
	}
	ia, ib := positions(a), positions(b)
	for i := range a {
		na, nb := t.nodes[a[i]], o.nodes[b[i]]
		if na.Kind != nb.Kind || na.Feature != nb.Feature || na.Degree != nb.Degree {
			return false
		}
		for _, s := range Sides {
			if pos(ia, na.child(s)) != pos(ib, nb.child(s)) {
				return false
			}
		}
		if na.Kind == KindTrace && pos(ia, na.of) != pos(ib, nb.of) {
			return false
		}
	}
	return true
}

func positions(ids []NodeID) map[NodeID]int {
	m := make(map[NodeID]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

func pos(m map[NodeID]int, id NodeID) int {
	if id == Nil {
		return -1
	}
	if p, ok := m[id]; ok {
		return p
	}
	return -2
}
