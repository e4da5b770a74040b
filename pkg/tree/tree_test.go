package tree_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/spellout/pkg/tree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndFormat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		size int
	}{
		{name: "Leaf", src: "V", want: "V", size: 1},
		{name: "Phrasal", src: "dp(d, vp(v))", want: "DP(D, VP(V))", size: 4},
		{name: "Degree", src: "CP2(C, CP1(T))", want: "CP2(C, CP1(T))", size: 4},
		{name: "Right Only", src: "DP(_, D)", want: "DP(_, D)", size: 2},
		{name: "Placeholder", src: "VP(...)", want: "VP(...)", size: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := tree.Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.Format(tr))
			assert.Equal(t, tt.size, tr.Size())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"", "DP(", "DP(D, V, X)", "DP()", "1P", "DP(D) V"} {
		_, err := tree.Parse(src)
		assert.Error(t, err, "expected error for %q", src)
	}
}

func TestParseName(t *testing.T) {
	n, err := tree.ParseName("vp")
	require.NoError(t, err)
	assert.Equal(t, tree.KindPhrasal, n.Kind)
	assert.Equal(t, "V", n.Feature)
	assert.Equal(t, 0, n.Degree)
	assert.Equal(t, "VP", n.Name())

	n, err = tree.ParseName("P")
	require.NoError(t, err)
	assert.Equal(t, tree.KindFeature, n.Kind)

	n, err = tree.ParseName("TP3")
	require.NoError(t, err)
	assert.Equal(t, "TP3", n.Name())
}

func TestBFSAndLocate(t *testing.T) {
	tr := tree.MustParse("TP(DP(D), VP(V, NP(N)))")

	var names []string
	for _, id := range tr.BFS() {
		names = append(names, tr.Name(id))
	}
	assert.Equal(t, []string{"TP", "DP", "VP", "D", "V", "NP", "N"}, names)

	parent, side, ok := tr.Locate(tr.Root())
	assert.True(t, ok)
	assert.Equal(t, tree.Nil, parent)
	assert.Equal(t, tree.Left, side)

	vp := tr.BFS()[2]
	np := tr.Child(vp, tree.Right)
	parent, side, ok = tr.Locate(np)
	assert.True(t, ok)
	assert.Equal(t, vp, parent)
	assert.Equal(t, tree.Right, side)

	tr.SetChild(vp, tree.Right, tree.Nil)
	_, _, ok = tr.Locate(np)
	assert.False(t, ok, "detached node must not be located")
}

func TestSignature(t *testing.T) {
	t.Run("Collapses Same Head", func(t *testing.T) {
		tr := tree.MustParse("DP2(X, DP1(D, N))")
		sig, ok := tr.Signature(tr.Root())
		require.True(t, ok)
		assert.Equal(t, "(DP (X) (D) (N))", sig.String())
	})

	t.Run("Leaf", func(t *testing.T) {
		tr := tree.MustParse("D")
		sig, ok := tr.Signature(tr.Root())
		require.True(t, ok)
		assert.Equal(t, "(D)", sig.String())
	})

	t.Run("Trace Skipped", func(t *testing.T) {
		tr := tree.MustParse("VP(D, V)")
		d := tr.Child(tr.Root(), tree.Left)
		tr.SetChild(tr.Root(), tree.Left, tr.AddTrace(d))
		sig, ok := tr.Signature(tr.Root())
		require.True(t, ok)
		assert.Equal(t, "(VP (V))", sig.String())

		_, ok = tr.Signature(tr.Child(tr.Root(), tree.Left))
		assert.False(t, ok)
	})

	t.Run("Equality", func(t *testing.T) {
		a := tree.MustParse("VP(V, DP(D))")
		b := tree.MustParse("VP1(V, DP(D))")
		sa, _ := a.Signature(a.Root())
		sb, _ := b.Signature(b.Root())
		assert.True(t, sa.Equal(sb))
	})
}

func TestSubtreeSize_TraceIsZero(t *testing.T) {
	tr := tree.MustParse("VP(D, V)")
	d := tr.Child(tr.Root(), tree.Left)
	tr.SetChild(tr.Root(), tree.Left, tr.AddTrace(d))
	assert.Equal(t, 2, tr.Size())
}

func TestClone_Independent(t *testing.T) {
	tr := tree.MustParse("VP(D, V)")
	clone := tr.Clone()
	require.True(t, tr.Equal(clone))

	clone.SetChild(clone.Root(), tree.Right, tree.Nil)
	assert.False(t, tr.Equal(clone))
	assert.Equal(t, "VP(D, V)", tree.Format(tr))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{name: "Valid", src: "DP(D, VP(V))"},
		{name: "Placeholder", src: "DP(...)", wantErr: true},
		{name: "Childless Phrasal", src: "DP", wantErr: true},
		{name: "Degree Gap", src: "DP2(D, VP(V))", wantErr: true},
		{name: "Zero And One", src: "DP1(X, DP(D))", wantErr: true},
		{name: "Gapless", src: "DP2(X, DP1(D))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tree.MustParse(tt.src).Check()
			if tt.wantErr {
				var ce *tree.CheckError
				assert.ErrorAs(t, err, &ce)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCodec_RoundTripWithTrace(t *testing.T) {
	tr := tree.MustParse("VP2(D, VP1(X, V))")
	inner := tr.Child(tr.Root(), tree.Right)
	tr.SetChild(inner, tree.Left, tr.AddTrace(tr.Child(tr.Root(), tree.Left)))

	raw, err := json.Marshal(tree.Encode(tr))
	require.NoError(t, err)

	var doc tree.Doc
	require.NoError(t, json.Unmarshal(raw, &doc))
	back, err := tree.Decode(&doc)
	require.NoError(t, err)

	assert.True(t, tr.Equal(back))
	assert.Equal(t, "VP2(D, VP1(tD, V))", tree.Format(back))
	if diff := cmp.Diff(tree.Encode(tr), tree.Encode(back)); diff != "" {
		t.Errorf("documents differ (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	seven := 7
	tests := []struct {
		name string
		doc  *tree.Doc
	}{
		{name: "Nil", doc: nil},
		{name: "Unknown Type", doc: &tree.Doc{Root: &tree.NodeDoc{Type: "Banana"}}},
		{name: "Phrasal Without Degree", doc: &tree.Doc{Root: &tree.NodeDoc{Type: "PhrasalNode", Feature: "V"}}},
		{name: "Dangling Trace", doc: &tree.Doc{Root: &tree.NodeDoc{
			Type: "PhrasalNode", Feature: "V", Degree: new(int), ID: 1,
			Left: &tree.NodeDoc{Type: "TraceNode", ID: 2, OfNode: &seven},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tree.Decode(tt.doc)
			assert.ErrorIs(t, err, tree.ErrMalformedDoc)
		})
	}
}

func TestDecodeNode(t *testing.T) {
	n, err := tree.DecodeNode(tree.EncodeNode(tree.Feature("V")))
	require.NoError(t, err)
	assert.Equal(t, "V", n.Name())

	_, err = tree.DecodeNode(&tree.NodeDoc{Type: "FeatureNode", Feature: "V", Left: &tree.NodeDoc{Type: "FeatureNode", Feature: "D"}})
	assert.ErrorIs(t, err, tree.ErrMalformedDoc)
}
