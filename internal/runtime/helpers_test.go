package runtime_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/spellout/internal/runtime"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/stretchr/testify/require"
)

const maxSteps = 1000

func entry(name, phon, pattern string) lexicon.Entry {
	return lexicon.Entry{Name: name, PhonologicalContent: phon, Tree: tree.MustParse(pattern)}
}

// sawSetup is a seed V merged with D, with "saw" and "the" in the lexicon.
func sawSetup(extra ...lexicon.Entry) *lexicon.Setup {
	return &lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon: append([]lexicon.Entry{
			entry("saw", "sɔː", "V"),
			entry("the", "ðə", "D"),
		}, extra...),
	}
}

// movementSetup needs D moved out of DP for DP to be lexicalized.
func movementSetup() *lexicon.Setup {
	return sawSetup(entry("x", "iks", "DP(V)"))
}

func started(t *testing.T, setup *lexicon.Setup, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	e := runtime.NewEngine(opts...)
	require.NoError(t, e.Start(setup))
	return e
}

// runToEnd steps with the default alternative until the engine blocks and
// returns the states entered.
func runToEnd(t *testing.T, e *runtime.Engine) []domain.State {
	t.Helper()
	var states []domain.State
	for i := 0; e.CanGoForward(); i++ {
		require.Less(t, i, maxSteps, "derivation did not terminate")
		require.NoError(t, e.GoForward(domain.DefaultAlternative))
		states = append(states, e.State())
	}
	return states
}

func snapshot(t *testing.T, e *runtime.Engine) string {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return string(b)
}

func spellout(e *runtime.Engine) []string {
	var names []string
	for _, entry := range e.Spellout() {
		names = append(names, entry.Name)
	}
	return names
}
