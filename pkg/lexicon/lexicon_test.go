package lexicon_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSetup() *lexicon.Setup {
	return &lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon: []lexicon.Entry{
			{Name: "saw", PhonologicalContent: "sɔː", Tree: tree.MustParse("V")},
			{Name: "the", PhonologicalContent: "ðə", Tree: tree.MustParse("D")},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *lexicon.Setup)
		want   error
	}{
		{name: "Valid", mutate: func(*lexicon.Setup) {}},
		{name: "No Initial Node", mutate: func(s *lexicon.Setup) { s.InitialNode = tree.Node{} }, want: lexicon.ErrNoInitialNode},
		{name: "Phrasal Initial Node", mutate: func(s *lexicon.Setup) { s.InitialNode = tree.Phrasal("V", 0) }, want: lexicon.ErrInitialNotFeature},
		{name: "No Merges", mutate: func(s *lexicon.Setup) { s.ExternalMerges = nil }, want: lexicon.ErrNoExternalMerges},
		{name: "Phrasal Merge", mutate: func(s *lexicon.Setup) {
			s.ExternalMerges = append(s.ExternalMerges, tree.Phrasal("T", 0))
		}, want: lexicon.ErrMergeNotFeature},
		{name: "Empty Lexicon", mutate: func(s *lexicon.Setup) { s.Lexicon = nil }, want: lexicon.ErrEmptyLexicon},
		{name: "Only Incomplete Entries", mutate: func(s *lexicon.Setup) {
			s.Lexicon = []lexicon.Entry{{Name: "draft"}, {Tree: tree.MustParse("V")}}
		}, want: lexicon.ErrEmptyLexicon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSetup()
			tt.mutate(s)
			err := s.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSeriesPolicy(t *testing.T) {
	untagged := lexicon.Entry{Name: "a", Tree: tree.MustParse("V")}
	tagged := lexicon.Entry{Name: "b", Tree: tree.MustParse("V"), ConceptualContent: []string{"GO", "PAST"}}

	tests := []struct {
		name   string
		policy lexicon.SeriesPolicy
		entry  lexicon.Entry
		series []string
		want   bool
	}{
		{name: "Untagged Intersecting", policy: lexicon.IntersectingSeries, entry: untagged, series: []string{"X"}, want: true},
		{name: "Untagged Exact", policy: lexicon.ExactSeries, entry: untagged, want: true},
		{name: "Intersecting Hit", policy: lexicon.IntersectingSeries, entry: tagged, series: []string{"PAST"}, want: true},
		{name: "Intersecting Miss", policy: lexicon.IntersectingSeries, entry: tagged, series: []string{"COME"}},
		{name: "Exact Hit Reordered", policy: lexicon.ExactSeries, entry: tagged, series: []string{"PAST", "GO"}, want: true},
		{name: "Exact Subset", policy: lexicon.ExactSeries, entry: tagged, series: []string{"GO"}},
		{name: "Tagged Without Series", policy: lexicon.IntersectingSeries, entry: tagged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Accessible(tt.entry, tt.series))
		})
	}
}

func TestParseSeriesPolicy(t *testing.T) {
	p, err := lexicon.ParseSeriesPolicy("Exact")
	require.NoError(t, err)
	assert.Equal(t, lexicon.ExactSeries, p)

	p, err = lexicon.ParseSeriesPolicy("")
	require.NoError(t, err)
	assert.Equal(t, lexicon.IntersectingSeries, p)

	_, err = lexicon.ParseSeriesPolicy("fuzzy")
	assert.ErrorIs(t, err, lexicon.ErrUnknownSeriesPolicy)
}

func TestAccessible_SkipsIncompleteAndFiltered(t *testing.T) {
	s := validSetup()
	s.Lexicon = append(s.Lexicon,
		lexicon.Entry{Name: "draft"},
		lexicon.Entry{Name: "went", Tree: tree.MustParse("V"), ConceptualContent: []string{"GO"}},
	)
	assert.Equal(t, []int{0, 1}, s.Accessible(lexicon.IntersectingSeries))

	s.ConceptualSeries = []string{"GO"}
	assert.Equal(t, []int{0, 1, 3}, s.Accessible(lexicon.IntersectingSeries))
}

func TestClone_Independent(t *testing.T) {
	s := validSetup()
	s.ConceptualSeries = []string{"GO"}
	c := s.Clone()

	c.Lexicon[0].Tree.Attach(c.Lexicon[0].Tree.Root(), tree.Left, tree.Feature("X"))
	c.Lexicon[0].Name = "changed"
	c.ConceptualSeries[0] = "COME"
	c.ExternalMerges[0] = tree.Feature("T")

	assert.Equal(t, "saw", s.Lexicon[0].Name)
	assert.Equal(t, 1, s.Lexicon[0].Tree.Size())
	assert.Equal(t, "GO", s.ConceptualSeries[0])
	assert.Equal(t, "D", s.ExternalMerges[0].Name())
}

func TestSetupCodec_RoundTrip(t *testing.T) {
	s := validSetup()
	s.Lexicon = append(s.Lexicon,
		lexicon.Entry{Name: "gone", Tree: tree.MustParse("VP(V, DP(D))"), ConceptualContent: []string{"GO"}},
		lexicon.Entry{Name: "draft"},
	)

	raw, err := json.Marshal(lexicon.EncodeSetup(s))
	require.NoError(t, err)

	var doc lexicon.SetupDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	back, err := lexicon.DecodeSetup(&doc)
	require.NoError(t, err)

	require.Len(t, back.Lexicon, 4)
	assert.Equal(t, "V", back.InitialNode.Name())
	assert.Equal(t, "D", back.ExternalMerges[0].Name())
	assert.Equal(t, "sɔː", back.Lexicon[0].PhonologicalContent)
	assert.Equal(t, []string{"GO"}, back.Lexicon[2].ConceptualContent)
	assert.True(t, s.Lexicon[2].Tree.Equal(back.Lexicon[2].Tree))
	assert.False(t, back.Lexicon[3].IsComplete())
	assert.NoError(t, back.Validate())
}

func TestDecodeSetup_RejectsTraceMerge(t *testing.T) {
	one := 1
	doc := &lexicon.SetupDoc{
		InitialNode:    &tree.NodeDoc{Type: "FeatureNode", Feature: "V"},
		ExternalMerges: []*tree.NodeDoc{{Type: "TraceNode", OfNode: &one}},
	}
	_, err := lexicon.DecodeSetup(doc)
	assert.ErrorIs(t, err, tree.ErrMalformedDoc)
}
