package metrics_test

import (
	"testing"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/metrics"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(lexiconSize int) *lexicon.Setup {
	entries := []lexicon.Entry{
		{Name: "saw", Tree: tree.MustParse("V")},
		{Name: "the", Tree: tree.MustParse("D")},
	}
	return &lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon:        entries[:lexiconSize],
	}
}

func TestCollectors_CountDerivation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg, nil)
	require.NoError(t, err)

	eng := spellout.New(spellout.WithLifecycleHooks(c.Hooks()))
	require.NoError(t, eng.Start(setup(2)))
	require.NoError(t, eng.GoToEnd())

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StateEnters.WithLabelValues(string(domain.StateJustStarted))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StateEnters.WithLabelValues(string(domain.StateSuccess))))
	// V, D and the root DP lexicalized to none.
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Lexicalizations.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DerivationsEnded.WithLabelValues("success")))

	failing := spellout.New(spellout.WithLifecycleHooks(c.Hooks()))
	require.NoError(t, failing.Start(setup(1)))
	require.NoError(t, failing.GoToEnd())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DerivationsEnded.WithLabelValues("failure")))
}

func TestCollectors_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg, nil)
	require.NoError(t, err)

	_, err = metrics.New(reg, nil)
	assert.Error(t, err)
}
