package setupfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is wrapped by every structural problem in a setup
// document.
var ErrInvalidDocument = errors.New("invalid setup document")

// Format selects the document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension. Anything other
// than .json is read as YAML, which is a superset of JSON anyway.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Document is the human-editable form of a setup. Nodes and trees are
// written in bracket notation, e.g. "V", "DP" or "DP(D, VP(V))".
type Document struct {
	InitialNode      string          `yaml:"initial_node" json:"initial_node" mapstructure:"initial_node" validate:"required"`
	ExternalMerges   []string        `yaml:"external_merges" json:"external_merges" mapstructure:"external_merges" validate:"required,min=1,dive,required"`
	ConceptualSeries []string        `yaml:"conceptual_series,omitempty" json:"conceptual_series,omitempty" mapstructure:"conceptual_series" validate:"dive,required"`
	Lexicon          []EntryDocument `yaml:"lexicon" json:"lexicon" mapstructure:"lexicon" validate:"dive"`

	// LexiconVault names a directory of entry documents appended to Lexicon.
	// Relative paths are resolved against the setup file.
	LexiconVault string `yaml:"lexicon_vault,omitempty" json:"lexicon_vault,omitempty" mapstructure:"lexicon_vault"`
}

// EntryDocument is one lexicon entry. An empty Tree makes the entry
// incomplete; it is kept but never matched.
type EntryDocument struct {
	Name                string   `yaml:"name" json:"name" mapstructure:"name" validate:"required"`
	PhonologicalContent string   `yaml:"phonological_content,omitempty" json:"phonological_content,omitempty" mapstructure:"phonological_content"`
	ConceptualContent   []string `yaml:"conceptual_content,omitempty" json:"conceptual_content,omitempty" mapstructure:"conceptual_content" validate:"dive,required"`
	Tree                string   `yaml:"tree,omitempty" json:"tree,omitempty" mapstructure:"tree"`
}

var validate = validator.New()

// ReadFile reads and decodes a setup document. The returned setup is not
// validated; LexiconVault is left for the caller to resolve.
func ReadFile(path string) (*Document, *lexicon.Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read setup file: %w", err)
	}
	doc, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.LexiconVault != "" && !filepath.IsAbs(doc.LexiconVault) {
		doc.LexiconVault = filepath.Join(filepath.Dir(path), doc.LexiconVault)
	}
	setup, err := doc.Setup()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, setup, nil
}

// Parse decodes data into a validated Document. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Document, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	default:
		return nil, fmt.Errorf("unknown setup format %q", format)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}
	return Decode(raw)
}

// Decode converts a loosely-typed map, as produced by any YAML or JSON
// decoder, into a validated Document.
func Decode(raw map[string]any) (*Document, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, describe(err))
	}
	return &doc, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// Setup converts the document into a lexicon setup.
func (d *Document) Setup() (*lexicon.Setup, error) {
	s := &lexicon.Setup{ConceptualSeries: d.ConceptualSeries}

	n, err := tree.ParseName(d.InitialNode)
	if err != nil {
		return nil, fmt.Errorf("initial node: %w", err)
	}
	s.InitialNode = n

	for i, name := range d.ExternalMerges {
		n, err := tree.ParseName(name)
		if err != nil {
			return nil, fmt.Errorf("external merge %d: %w", i+1, err)
		}
		s.ExternalMerges = append(s.ExternalMerges, n)
	}

	for i, ed := range d.Lexicon {
		e, err := ed.Entry()
		if err != nil {
			return nil, fmt.Errorf("lexicon entry %d: %w", i+1, err)
		}
		s.Lexicon = append(s.Lexicon, e)
	}
	return s, nil
}

// Entry converts the document into a lexicon entry.
func (d EntryDocument) Entry() (lexicon.Entry, error) {
	e := lexicon.Entry{
		Name:                d.Name,
		PhonologicalContent: d.PhonologicalContent,
		ConceptualContent:   d.ConceptualContent,
	}
	if strings.TrimSpace(d.Tree) != "" {
		t, err := tree.Parse(d.Tree)
		if err != nil {
			return lexicon.Entry{}, fmt.Errorf("%s: %w", d.Name, err)
		}
		e.Tree = t
	}
	return e, nil
}

// FromSetup renders a setup as a document.
func FromSetup(s *lexicon.Setup) *Document {
	d := &Document{
		InitialNode:      s.InitialNode.Name(),
		ConceptualSeries: s.ConceptualSeries,
	}
	for _, n := range s.ExternalMerges {
		d.ExternalMerges = append(d.ExternalMerges, n.Name())
	}
	for _, e := range s.Lexicon {
		ed := EntryDocument{
			Name:                e.Name,
			PhonologicalContent: e.PhonologicalContent,
			ConceptualContent:   e.ConceptualContent,
		}
		if e.Tree != nil {
			ed.Tree = tree.Format(e.Tree)
		}
		d.Lexicon = append(d.Lexicon, ed)
	}
	return d
}

// Marshal encodes the document in the given format.
func (d *Document) Marshal(format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(d, "", "  ")
	}
	return yaml.Marshal(d)
}
