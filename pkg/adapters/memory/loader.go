package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/spellout/pkg/lexicon"
)

// Loader implements ports.LexiconLoader over a fixed slice of entries.
type Loader struct {
	entries []lexicon.Entry
}

// NewLoader creates a loader serving clones of the given entries.
func NewLoader(entries ...lexicon.Entry) *Loader {
	l := &Loader{}
	for _, e := range entries {
		l.entries = append(l.entries, e.Clone())
	}
	return l
}

// NewFromDocs creates a loader from entry documents.
// This handles decoding automatically, improving DX for tests.
func NewFromDocs(docs ...lexicon.EntryDoc) (*Loader, error) {
	l := &Loader{}
	for i, d := range docs {
		e, err := lexicon.DecodeEntry(d)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		l.entries = append(l.entries, e)
	}
	return l, nil
}

// LoadLexicon returns clones of the entries in insertion order.
func (l *Loader) LoadLexicon(ctx context.Context) ([]lexicon.Entry, error) {
	out := make([]lexicon.Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out, nil
}
