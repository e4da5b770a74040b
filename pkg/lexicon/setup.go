package lexicon

import (
	"fmt"
	"slices"

	"github.com/aretw0/spellout/pkg/tree"
)

// Setup is the problem statement of a derivation. A zero InitialNode (Kind
// 0) means no seed has been chosen yet.
type Setup struct {
	InitialNode      tree.Node
	ExternalMerges   []tree.Node
	Lexicon          []Entry
	ConceptualSeries []string
}

// Validate checks that the setup can start a derivation.
func (s *Setup) Validate() error {
	if s.InitialNode.Kind == 0 {
		return ErrNoInitialNode
	}
	if s.InitialNode.Kind != tree.KindFeature {
		return fmt.Errorf("%s: %w", s.InitialNode.Name(), ErrInitialNotFeature)
	}
	if len(s.ExternalMerges) == 0 {
		return ErrNoExternalMerges
	}
	for i, n := range s.ExternalMerges {
		if n.Kind != tree.KindFeature {
			return fmt.Errorf("external merge %d (%s): %w", i+1, n.Name(), ErrMergeNotFeature)
		}
	}
	if !slices.ContainsFunc(s.Lexicon, Entry.IsComplete) {
		return ErrEmptyLexicon
	}
	return nil
}

// Clone returns a deep copy of the setup.
func (s *Setup) Clone() *Setup {
	c := &Setup{
		InitialNode:      s.InitialNode.Clone(),
		ExternalMerges:   make([]tree.Node, len(s.ExternalMerges)),
		Lexicon:          make([]Entry, len(s.Lexicon)),
		ConceptualSeries: slices.Clone(s.ConceptualSeries),
	}
	for i, n := range s.ExternalMerges {
		c.ExternalMerges[i] = n.Clone()
	}
	for i, e := range s.Lexicon {
		c.Lexicon[i] = e.Clone()
	}
	return c
}

// Accessible lists, in lexicon order, the indices of the complete entries
// admitted by policy for this setup's conceptual series.
func (s *Setup) Accessible(policy SeriesPolicy) []int {
	var out []int
	for i, e := range s.Lexicon {
		if e.IsComplete() && policy.Accessible(e, s.ConceptualSeries) {
			out = append(out, i)
		}
	}
	return out
}
