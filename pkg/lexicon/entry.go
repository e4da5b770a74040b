package lexicon

import (
	"slices"

	"github.com/aretw0/spellout/pkg/tree"
)

// Entry is a lexical item: a name, its phonological content, the conceptual
// tags gating its accessibility and the pattern tree it lexicalizes.
type Entry struct {
	Name                string
	PhonologicalContent string
	ConceptualContent   []string
	Tree                *tree.Tree
}

// NoEntry marks a node lexicalized to nothing.
const NoEntry = -1

// IsComplete reports whether the entry can take part in a derivation.
// Entries being edited may lack a name or a pattern.
func (e Entry) IsComplete() bool {
	return e.Name != "" && e.Tree != nil
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	c.ConceptualContent = slices.Clone(e.ConceptualContent)
	if e.Tree != nil {
		c.Tree = e.Tree.Clone()
	}
	return c
}
