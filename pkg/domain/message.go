package domain

import "fmt"

// Severity classifies a log message.
type Severity string

const (
	SeverityNote    Severity = "note"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity validates a severity name.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityNote, SeverityWarning, SeverityError:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Message is one entry of the derivation log.
type Message struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"message"`
}

// Highlight marks the role of a node in the current step.
type Highlight string

const (
	// HighlightTarget marks the destination of a move or merge.
	HighlightTarget Highlight = ">"
	// HighlightSource marks a node about to be moved.
	HighlightSource Highlight = "<"
	// HighlightFocus marks the node being merged or lexicalized.
	HighlightFocus Highlight = "*"
)

// ParseHighlight validates a highlight marker.
func ParseHighlight(s string) (Highlight, error) {
	switch Highlight(s) {
	case HighlightTarget, HighlightSource, HighlightFocus:
		return Highlight(s), nil
	}
	return "", fmt.Errorf("unknown highlight %q", s)
}
