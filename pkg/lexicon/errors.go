package lexicon

import "errors"

var (
	// ErrNoInitialNode is returned when a setup has no seed node.
	ErrNoInitialNode = errors.New("you must provide an initial node for the algorithm to start")
	// ErrInitialNotFeature is returned when the seed is not a feature node.
	ErrInitialNotFeature = errors.New("initial node must be a feature node")
	// ErrNoExternalMerges is returned when the merge queue is empty.
	ErrNoExternalMerges = errors.New("you must specify at least one node to externally merge")
	// ErrMergeNotFeature is returned when a queued merge is not a feature node.
	ErrMergeNotFeature = errors.New("only feature nodes may be externally merged")
	// ErrEmptyLexicon is returned when the lexicon has no complete entry.
	ErrEmptyLexicon = errors.New("the lexicon is empty")
	// ErrUnknownSeriesPolicy is returned by ParseSeriesPolicy.
	ErrUnknownSeriesPolicy = errors.New("unknown conceptual series policy")
)
