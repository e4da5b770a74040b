package lexicon

import (
	"fmt"

	"github.com/aretw0/spellout/pkg/tree"
)

// EntryDoc is the interchange form of an Entry.
type EntryDoc struct {
	Name                string    `json:"name"`
	PhonologicalContent *string   `json:"phonological_content"`
	ConceptualContent   []string  `json:"conceptual_content"`
	Tree                *tree.Doc `json:"tree"`
}

// SetupDoc is the interchange form of a Setup.
type SetupDoc struct {
	InitialNode      *tree.NodeDoc   `json:"initial_node"`
	ExternalMerges   []*tree.NodeDoc `json:"external_merges"`
	Lexicon          []EntryDoc      `json:"lexicon"`
	ConceptualSeries []string        `json:"conceptual_series,omitempty"`
}

// EncodeSetup converts s into its interchange form.
func EncodeSetup(s *Setup) *SetupDoc {
	doc := &SetupDoc{
		ExternalMerges:   make([]*tree.NodeDoc, 0, len(s.ExternalMerges)),
		Lexicon:          make([]EntryDoc, 0, len(s.Lexicon)),
		ConceptualSeries: s.ConceptualSeries,
	}
	if s.InitialNode.Kind != 0 {
		doc.InitialNode = tree.EncodeNode(s.InitialNode)
	}
	for _, n := range s.ExternalMerges {
		doc.ExternalMerges = append(doc.ExternalMerges, tree.EncodeNode(n))
	}
	for _, e := range s.Lexicon {
		doc.Lexicon = append(doc.Lexicon, EncodeEntry(e))
	}
	return doc
}

// EncodeEntry converts e into its interchange form.
func EncodeEntry(e Entry) EntryDoc {
	doc := EntryDoc{
		Name:              e.Name,
		ConceptualContent: e.ConceptualContent,
		Tree:              tree.Encode(e.Tree),
	}
	if doc.ConceptualContent == nil {
		doc.ConceptualContent = []string{}
	}
	if e.PhonologicalContent != "" {
		phon := e.PhonologicalContent
		doc.PhonologicalContent = &phon
	}
	return doc
}

// DecodeSetup rebuilds a Setup. It does not validate the result.
func DecodeSetup(doc *SetupDoc) (*Setup, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: missing setup", tree.ErrMalformedDoc)
	}
	s := &Setup{ConceptualSeries: doc.ConceptualSeries}
	if doc.InitialNode != nil {
		n, err := tree.DecodeNode(doc.InitialNode)
		if err != nil {
			return nil, fmt.Errorf("initial node: %w", err)
		}
		s.InitialNode = n
	}
	for i, nd := range doc.ExternalMerges {
		n, err := tree.DecodeNode(nd)
		if err != nil {
			return nil, fmt.Errorf("external merge %d: %w", i+1, err)
		}
		s.ExternalMerges = append(s.ExternalMerges, n)
	}
	for i, ed := range doc.Lexicon {
		e, err := DecodeEntry(ed)
		if err != nil {
			return nil, fmt.Errorf("lexicon entry %d: %w", i+1, err)
		}
		s.Lexicon = append(s.Lexicon, e)
	}
	return s, nil
}

// DecodeEntry rebuilds an Entry. A missing tree is allowed and makes the
// entry incomplete.
func DecodeEntry(doc EntryDoc) (Entry, error) {
	e := Entry{Name: doc.Name, ConceptualContent: doc.ConceptualContent}
	if doc.PhonologicalContent != nil {
		e.PhonologicalContent = *doc.PhonologicalContent
	}
	if doc.Tree != nil {
		t, err := tree.Decode(doc.Tree)
		if err != nil {
			return Entry{}, err
		}
		e.Tree = t
	}
	return e, nil
}
