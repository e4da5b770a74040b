package domain

import "fmt"

// State names a step of the derivation state machine.
type State string

const (
	StateNotStarted             State = "not_started"
	StateJustStarted            State = "just_started"
	StateBeginMergeRound        State = "begin_merge_round"
	StateAnnounceMove           State = "announce_move"
	StateMovedNode              State = "moved_node"
	StateAnnounceExternalMerge  State = "announce_external_merge"
	StateMergedNode             State = "merged_node"
	StateAnnounceLexicalization State = "announce_lexicalization"
	StateListMatches            State = "list_matches"
	StateLexicalizedNode        State = "lexicalized_node"
	StateLexicalizationDone     State = "lexicalization_done"
	StateEndMergeRound          State = "end_merge_round"
	StateSuccess                State = "success"
	StateFailure                State = "failure"
)

// States lists every state in declaration order.
var States = []State{
	StateNotStarted,
	StateJustStarted,
	StateBeginMergeRound,
	StateAnnounceMove,
	StateMovedNode,
	StateAnnounceExternalMerge,
	StateMergedNode,
	StateAnnounceLexicalization,
	StateListMatches,
	StateLexicalizedNode,
	StateLexicalizationDone,
	StateEndMergeRound,
	StateSuccess,
	StateFailure,
}

// ParseState validates a symbolic state name.
func ParseState(name string) (State, error) {
	for _, s := range States {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown state %q", name)
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}
