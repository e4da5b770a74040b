package match_test

import (
	"testing"

	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/match"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWith(entries ...lexicon.Entry) *lexicon.Setup {
	return &lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon:        entries,
	}
}

func entry(name, pattern string) lexicon.Entry {
	return lexicon.Entry{Name: name, Tree: tree.MustParse(pattern)}
}

func TestWithoutMovement_Exact(t *testing.T) {
	s := setupWith(entry("saw", "V"), entry("the", "D"))
	m := match.New(s, lexicon.IntersectingSeries)

	got := m.WithoutMovement(tree.MustParse("V"), 0)
	require.Len(t, got, 1)
	assert.Equal(t, match.Match{Entry: 0, Extras: 0, Moved: tree.Nil}, got[0])
}

func TestWithoutMovement_ExtrasFromLargerPattern(t *testing.T) {
	s := setupWith(entry("aux", "TP(T, VP(V))"))
	m := match.New(s, lexicon.IntersectingSeries)
	d := tree.MustParse("VP(V)")

	got := m.WithoutMovement(d, d.Root())
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Extras)
	assert.Equal(t, "aux (2 extras)", got[0].Description(s, d))
}

func TestWithoutMovement_StableOrdering(t *testing.T) {
	s := setupWith(
		entry("big", "XP(X, VP(V))"),
		entry("first", "V"),
		entry("middle", "VP(V)"),
		entry("second", "V"),
	)
	m := match.New(s, lexicon.IntersectingSeries)
	d := tree.MustParse("V")

	var names []string
	var extras []int
	for _, got := range m.WithoutMovement(d, d.Root()) {
		names = append(names, s.Lexicon[got.Entry].Name)
		extras = append(extras, got.Extras)
	}
	assert.Equal(t, []string{"first", "second", "middle", "big"}, names)
	assert.Equal(t, []int{0, 0, 1, 3}, extras)
}

func TestWithoutMovement_RespectsSeries(t *testing.T) {
	s := setupWith(
		lexicon.Entry{Name: "went", Tree: tree.MustParse("V"), ConceptualContent: []string{"GO", "PAST"}},
		entry("did", "V"),
	)
	d := tree.MustParse("V")

	got := match.New(s, lexicon.IntersectingSeries).WithoutMovement(d, d.Root())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Entry)

	s.ConceptualSeries = []string{"GO"}
	assert.Len(t, match.New(s, lexicon.IntersectingSeries).WithoutMovement(d, d.Root()), 2)
	assert.Len(t, match.New(s, lexicon.ExactSeries).WithoutMovement(d, d.Root()), 1)
}

func TestWithoutMovement_TraceHasNoMatches(t *testing.T) {
	s := setupWith(entry("saw", "V"))
	d := tree.MustParse("VP(D, V)")
	tr := d.AddTrace(d.Child(d.Root(), tree.Left))
	d.SetChild(d.Root(), tree.Left, tr)

	assert.Empty(t, match.New(s, lexicon.IntersectingSeries).WithoutMovement(d, tr))
}

// A two-node pattern matched against its own bare child.
func TestWithoutMovement_PatternChildCoversOneExtra(t *testing.T) {
	s := setupWith(entry("dp", "DP(D)"))
	d := tree.MustParse("D")

	got := match.New(s, lexicon.IntersectingSeries).WithoutMovement(d, d.Root())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Extras)
}

func TestWithOneMovement(t *testing.T) {
	s := setupWith(entry("vp", "VP(V)"))
	m := match.New(s, lexicon.IntersectingSeries)
	d := tree.MustParse("VP(DP(D), V)")
	before := d.Clone()
	dp := d.Child(d.Root(), tree.Left)

	assert.Empty(t, m.WithoutMovement(d, d.Root()))

	got := m.WithOneMovement(d, d.Root())
	require.Len(t, got, 1)
	assert.Equal(t, dp, got[0].Moved)
	assert.Equal(t, "vp (moving DP)", got[0].Description(s, d))

	assert.True(t, before.Equal(d), "movement trials must leave the tree unchanged")
	assert.Equal(t, dp, d.Child(d.Root(), tree.Left))
}

func TestWithOneMovement_SkipsTraces(t *testing.T) {
	s := setupWith(entry("vp", "VP(V)"))
	m := match.New(s, lexicon.IntersectingSeries)
	d := tree.MustParse("VP(D, V)")
	d.SetChild(d.Root(), tree.Left, d.AddTrace(d.Child(d.Root(), tree.Left)))

	for _, got := range m.WithOneMovement(d, d.Root()) {
		assert.NotEqual(t, tree.KindTrace, d.Node(got.Moved).Kind)
	}
}

func TestForNode_AppendsMovementAfterSorted(t *testing.T) {
	s := setupWith(entry("wide", "XP(X, VP(V, DP(D)))"), entry("vp", "VP(V)"))
	m := match.New(s, lexicon.IntersectingSeries)
	d := tree.MustParse("VP(V, DP(D))")

	got := m.ForNode(d, d.Root())
	require.NotEmpty(t, got)
	assert.Equal(t, tree.Nil, got[0].Moved)
	assert.Equal(t, 0, got[0].Entry)
	assert.Equal(t, 2, got[0].Extras)

	var moved []match.Match
	for _, g := range got[1:] {
		if g.Moved != tree.Nil {
			moved = append(moved, g)
		}
	}
	require.NotEmpty(t, moved)
	assert.Equal(t, "vp (moving DP)", moved[0].Description(s, d))
}
