package lexicon

import (
	"fmt"
	"slices"
	"strings"
)

// SeriesPolicy decides whether a tagged entry is accessible for a given
// conceptual series. Untagged entries are accessible under every policy.
type SeriesPolicy uint8

const (
	// IntersectingSeries admits an entry sharing at least one tag with the
	// series.
	IntersectingSeries SeriesPolicy = iota
	// ExactSeries admits an entry whose tags equal the series as a set.
	ExactSeries
)

func (p SeriesPolicy) String() string {
	switch p {
	case IntersectingSeries:
		return "intersecting"
	case ExactSeries:
		return "exact"
	default:
		return fmt.Sprintf("SeriesPolicy(%d)", uint8(p))
	}
}

// ParseSeriesPolicy accepts the names produced by String.
func ParseSeriesPolicy(s string) (SeriesPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "intersecting":
		return IntersectingSeries, nil
	case "exact":
		return ExactSeries, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeriesPolicy, s)
}

// Accessible reports whether e may be used in a derivation run under series.
func (p SeriesPolicy) Accessible(e Entry, series []string) bool {
	if len(e.ConceptualContent) == 0 {
		return true
	}
	switch p {
	case ExactSeries:
		return sameSet(e.ConceptualContent, series)
	default:
		for _, tag := range e.ConceptualContent {
			if slices.Contains(series, tag) {
				return true
			}
		}
		return false
	}
}

func sameSet(a, b []string) bool {
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	for _, x := range b {
		if !slices.Contains(a, x) {
			return false
		}
	}
	return true
}
