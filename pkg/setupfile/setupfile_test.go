package setupfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/setupfile"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sawYAML = `
initial_node: V
external_merges: [D]
conceptual_series: [DEF]
lexicon:
  - name: saw
    phonological_content: sɔː
    tree: V
  - name: the
    phonological_content: ðə
    conceptual_content: [DEF, SG]
    tree: D
  - name: draft
`

func TestParse_YAML(t *testing.T) {
	doc, err := setupfile.Parse([]byte(sawYAML), setupfile.FormatYAML)
	require.NoError(t, err)

	s, err := doc.Setup()
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, tree.Feature("V"), s.InitialNode)
	assert.Equal(t, []tree.Node{tree.Feature("D")}, s.ExternalMerges)
	assert.Equal(t, []string{"DEF"}, s.ConceptualSeries)
	require.Len(t, s.Lexicon, 3)
	assert.Equal(t, "ðə", s.Lexicon[1].PhonologicalContent)
	assert.Equal(t, []string{"DEF", "SG"}, s.Lexicon[1].ConceptualContent)
	assert.False(t, s.Lexicon[2].IsComplete(), "an entry without a tree is incomplete")
}

func TestParse_JSON(t *testing.T) {
	src := `{"initial_node":"v","external_merges":["d","tp"],"lexicon":[{"name":"x","tree":"TP(T, DP(D))"}]}`
	doc, err := setupfile.Parse([]byte(src), setupfile.FormatJSON)
	require.NoError(t, err)

	s, err := doc.Setup()
	require.NoError(t, err)
	assert.Equal(t, "V", s.InitialNode.Name())
	assert.Equal(t, "TP", s.ExternalMerges[1].Name())
	assert.Equal(t, "TP(T, DP(D))", tree.Format(s.Lexicon[0].Tree))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "Empty", src: ""},
		{name: "Not A Map", src: "- a\n- b\n"},
		{name: "Missing Initial", src: "external_merges: [D]\nlexicon: [{name: a, tree: D}]\n"},
		{name: "No Merges", src: "initial_node: V\nexternal_merges: []\n"},
		{name: "Unknown Key", src: "initial_node: V\nexternal_merges: [D]\ncolour: blue\n"},
		{name: "Unnamed Entry", src: "initial_node: V\nexternal_merges: [D]\nlexicon: [{tree: D}]\n"},
		{name: "Blank Tag", src: "initial_node: V\nexternal_merges: [D]\nlexicon: [{name: a, conceptual_content: ['']}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := setupfile.Parse([]byte(tt.src), setupfile.FormatYAML)
			assert.ErrorIs(t, err, setupfile.ErrInvalidDocument)
		})
	}
}

func TestDocument_SetupErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  setupfile.Document
	}{
		{name: "Bad Initial", doc: setupfile.Document{InitialNode: "1x", ExternalMerges: []string{"D"}}},
		{name: "Bad Merge", doc: setupfile.Document{InitialNode: "V", ExternalMerges: []string{"D("}}},
		{name: "Bad Tree", doc: setupfile.Document{InitialNode: "V", ExternalMerges: []string{"D"},
			Lexicon: []setupfile.EntryDocument{{Name: "a", Tree: "DP(D, V, X)"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Setup()
			assert.Error(t, err)
		})
	}
}

func TestFromSetup_RoundTrip(t *testing.T) {
	doc, err := setupfile.Parse([]byte(sawYAML), setupfile.FormatYAML)
	require.NoError(t, err)
	s, err := doc.Setup()
	require.NoError(t, err)

	for _, format := range []setupfile.Format{setupfile.FormatYAML, setupfile.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := setupfile.FromSetup(s).Marshal(format)
			require.NoError(t, err)

			again, err := setupfile.Parse(data, format)
			require.NoError(t, err)
			assert.Equal(t, doc.Lexicon, again.Lexicon)
			assert.Equal(t, doc.ExternalMerges, again.ExternalMerges)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.yaml")
	src := sawYAML + "lexicon_vault: entries\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	doc, s, err := setupfile.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "entries"), doc.LexiconVault)
	assert.Len(t, s.Lexicon, 3)

	_, _, err = setupfile.ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, setupfile.FormatJSON, setupfile.FormatFromPath("a/b.JSON"))
	assert.Equal(t, setupfile.FormatYAML, setupfile.FormatFromPath("a/b.yml"))
	assert.Equal(t, setupfile.FormatYAML, setupfile.FormatFromPath("setup"))
}

func TestSetupValidationAfterDecode(t *testing.T) {
	doc, err := setupfile.Parse([]byte("initial_node: VP\nexternal_merges: [D]\nlexicon: [{name: a, tree: D}]\n"), setupfile.FormatYAML)
	require.NoError(t, err)
	s, err := doc.Setup()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Validate(), lexicon.ErrInitialNotFeature)
}
