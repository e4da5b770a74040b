package ports

import (
	"context"

	"github.com/aretw0/spellout/pkg/lexicon"
)

// LexiconLoader retrieves lexicon entries from an external source.
// This allows the storage of lexical items (Loam, FS, Memory) to be decoupled
// from the setup that references them.
type LexiconLoader interface {
	// LoadLexicon returns every entry available in the source, in a stable order.
	LoadLexicon(ctx context.Context) ([]lexicon.Entry, error)
}
