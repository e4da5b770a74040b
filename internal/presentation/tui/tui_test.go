package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/presentation/tui"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finished(t *testing.T) *spellout.Engine {
	t.Helper()
	eng := spellout.New()
	require.NoError(t, eng.Start(&lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon: []lexicon.Entry{
			{Name: "saw", PhonologicalContent: "sɔː", Tree: tree.MustParse("V")},
			{Name: "the", PhonologicalContent: "ðə", ConceptualContent: []string{"DEF"}, Tree: tree.MustParse("D")},
		},
		ConceptualSeries: []string{"DEF"},
	}))
	require.NoError(t, eng.GoToEnd())
	return eng
}

func TestReport(t *testing.T) {
	out := tui.Report(finished(t), true)

	assert.Contains(t, out, "- **State:** `success`")
	assert.Contains(t, out, "| 1 | the | ðə | DEF |")
	assert.Contains(t, out, "| 2 | saw | sɔː | - |")
	assert.Contains(t, out, "## Log")
	assert.Contains(t, out, "- Algorithm started.")
}

func TestReport_WithoutLog(t *testing.T) {
	out := tui.Report(finished(t), false)
	assert.NotContains(t, out, "## Log")
}

func TestStyler_Ascii(t *testing.T) {
	s := tui.NewStylerWithProfile(termenv.Ascii)

	assert.Equal(t, "· hello", s.Message(domain.Message{Severity: domain.SeverityNote, Text: "hello"}))
	assert.Equal(t, "! careful", s.Message(domain.Message{Severity: domain.SeverityWarning, Text: "careful"}))
	assert.Contains(t, s.Message(domain.Message{Severity: domain.SeverityError, Text: "FAILURE: x"}), "FAILURE: x")
}

func TestPlainRenderer(t *testing.T) {
	out, err := tui.PlainRenderer("# x")
	require.NoError(t, err)
	assert.Equal(t, "# x", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}
