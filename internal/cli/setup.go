package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/spellout/pkg/adapters/loam"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/ports"
	"github.com/aretw0/spellout/pkg/setupfile"
)

// LoadSetup reads a setup document. Entries of its lexicon vault, if it
// names one, are appended after the inline lexicon.
func LoadSetup(ctx context.Context, path string, logger *slog.Logger) (*lexicon.Setup, error) {
	doc, setup, err := setupfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if doc.LexiconVault == "" {
		return setup, nil
	}

	loader, err := loam.Open(doc.LexiconVault)
	if err != nil {
		return nil, err
	}
	if err := ExtendLexicon(ctx, setup, loader); err != nil {
		return nil, fmt.Errorf("lexicon vault %s: %w", doc.LexiconVault, err)
	}
	logger.Debug("Lexicon vault loaded", "path", doc.LexiconVault, "entries", len(setup.Lexicon))
	return setup, nil
}

// ExtendLexicon appends every entry of the loader to the setup lexicon.
func ExtendLexicon(ctx context.Context, setup *lexicon.Setup, loader ports.LexiconLoader) error {
	entries, err := loader.LoadLexicon(ctx)
	if err != nil {
		return err
	}
	setup.Lexicon = append(setup.Lexicon, entries...)
	return nil
}
