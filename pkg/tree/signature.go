package tree

import "strings"

// Signature is the structural fingerprint of a subtree: a head token
// followed by the signatures of the children that survive collapsing.
type Signature struct {
	Head  string
	Items []Signature
}

// Signature computes the signature of the subtree rooted at id. A child
// whose signature has the same head as id is flattened into id's signature,
// so chains of bar-level wrappers of one feature collapse into one level.
// Traces and placeholders have no signature (ok == false).
func (t *Tree) Signature(id NodeID) (Signature, bool) {
	head, ok := t.nodes[id].OwnSignature()
	if !ok {
		return Signature{}, false
	}
	sig := Signature{Head: head}
	for _, side := range Sides {
		c := t.Child(id, side)
		if c == Nil {
			continue
		}
		sub, ok := t.Signature(c)
		if !ok {
			continue
		}
		if sub.Head == head {
			sig.Items = append(sig.Items, sub.Items...)
		} else {
			sig.Items = append(sig.Items, sub)
		}
	}
	return sig, true
}

// Equal compares two signatures as sequences.
func (s Signature) Equal(o Signature) bool {
	if s.Head != o.Head || len(s.Items) != len(o.Items) {
		return false
	}
	for i := range s.Items {
		if !s.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

// String renders the signature as a nested tuple, e.g. (DP (D) (V)).
func (s Signature) String() string {
	var sb strings.Builder
	s.write(&sb)
	return sb.String()
}

func (s Signature) write(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(s.Head)
	for _, item := range s.Items {
		sb.WriteByte(' ')
		item.write(sb)
	}
	sb.WriteByte(')')
}
