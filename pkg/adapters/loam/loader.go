package loam

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts a Loam vault of entry documents to the ports.LexiconLoader
// interface. Each document (markdown with frontmatter, JSON or YAML) holds
// one lexicon entry; its body is free-form notes and is ignored.
type Loader struct {
	Repo *loam.TypedRepository[EntryMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[EntryMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes an unversioned vault rooted at dir.
func Open(dir string) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("open lexicon vault %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[EntryMetadata](repo)), nil
}

type ordered struct {
	id    string
	order int
	entry lexicon.Entry
}

// LoadLexicon reads every entry document in the vault, ordered by their
// order field and then by ID.
func (l *Loader) LoadLexicon(ctx context.Context) ([]lexicon.Entry, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	items := make([]ordered, 0, len(docs))
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: entry '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		entry, err := toEntry(id, doc.Data)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", doc.ID, err)
		}
		items = append(items, ordered{id: id, order: doc.Data.Order, entry: entry})
	}

	slices.SortStableFunc(items, func(a, b ordered) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	entries := make([]lexicon.Entry, len(items))
	for i, it := range items {
		entries[i] = it.entry
	}
	return entries, nil
}

// Entry retrieves a single entry by document ID.
func (l *Loader) Entry(ctx context.Context, id string) (lexicon.Entry, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return lexicon.Entry{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return toEntry(trimExtension(doc.ID), doc.Data)
}

func toEntry(id string, meta EntryMetadata) (lexicon.Entry, error) {
	e := lexicon.Entry{
		Name:                meta.Name,
		PhonologicalContent: meta.PhonologicalContent,
		ConceptualContent:   meta.ConceptualContent,
	}
	if e.Name == "" {
		e.Name = filepath.Base(id)
	}
	t, err := decodeTree(meta.Tree)
	if err != nil {
		return lexicon.Entry{}, err
	}
	e.Tree = t
	return e, nil
}

// decodeTree accepts notation strings and structured documents. A missing
// tree yields nil, an incomplete entry.
func decodeTree(v any) (*tree.Tree, error) {
	switch raw := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		return tree.Parse(raw)
	default:
		var doc tree.Doc
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &doc,
			TagName:     "json",
			ErrorUnused: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", tree.ErrMalformedDoc, err)
		}
		return tree.Decode(&doc)
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
