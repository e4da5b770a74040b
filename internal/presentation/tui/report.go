package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/tree"
)

// Derivation is the read surface a report needs.
type Derivation interface {
	State() domain.State
	Round() int
	Tree() *tree.Tree
	Spellout() []lexicon.Entry
	Log() []domain.Message
}

// Report renders the outcome of a derivation as markdown.
func Report(d Derivation, withLog bool) string {
	var sb strings.Builder
	sb.WriteString("# Derivation\n\n")
	fmt.Fprintf(&sb, "- **State:** `%s`\n", d.State())
	fmt.Fprintf(&sb, "- **External merge round:** %d\n", d.Round())
	if t := d.Tree(); t != nil {
		fmt.Fprintf(&sb, "- **Tree:** `%s`\n", tree.Format(t))
	}

	if d.State() == domain.StateSuccess {
		sb.WriteString("\n## Spell-out\n\n")
		sb.WriteString("| # | Item | Phonology | Concepts |\n")
		sb.WriteString("|---|------|-----------|----------|\n")
		for i, e := range d.Spellout() {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, cell(e.Name), cell(e.PhonologicalContent), cell(strings.Join(e.ConceptualContent, ", ")))
		}
	}

	if withLog {
		sb.WriteString("\n## Log\n\n")
		for _, m := range d.Log() {
			prefix := ""
			switch m.Severity {
			case domain.SeverityWarning:
				prefix = "**warning:** "
			case domain.SeverityError:
				prefix = "**error:** "
			}
			fmt.Fprintf(&sb, "- %s%s\n", prefix, m.Text)
		}
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
