package domain

import "slices"

// Progress is the public summary of a derivation session.
type Progress struct {
	SessionID    string        `json:"session_id"`
	State        State         `json:"state"`
	Round        int           `json:"external_merge_round"`
	Log          []Message     `json:"log"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Spellout     []string      `json:"spellout,omitempty"`
}

// ProgressDiff represents the changes between two progress views.
// It is designed to be serialized to JSON for partial updates on the client.
type ProgressDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	State *State `json:"state,omitempty"`
	Round *int   `json:"external_merge_round,omitempty"`

	// Log describes how to turn the old log into the new one: drop
	// Truncated messages from the end, then append Appended.
	Log *LogDelta `json:"log,omitempty"`

	// Alternatives is the full current choice list, sent whenever it changed.
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Spellout     []string      `json:"spellout,omitempty"`
}

// LogDelta represents changes to the log.
type LogDelta struct {
	Truncated int       `json:"truncated,omitempty"`
	Appended  []Message `json:"appended,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new view
// (initial load). It returns nil when nothing changed.
func Diff(old, new *Progress) *ProgressDiff {
	if new == nil {
		return nil
	}

	diff := &ProgressDiff{SessionID: new.SessionID}

	if old == nil || old.State != new.State {
		diff.State = &new.State
	}
	if old == nil || old.Round != new.Round {
		diff.Round = &new.Round
	}

	diff.Log = diffLog(old, new)

	if old == nil || !slices.Equal(old.Alternatives, new.Alternatives) {
		diff.Alternatives = new.Alternatives
	}
	if old == nil || !slices.Equal(old.Spellout, new.Spellout) {
		diff.Spellout = new.Spellout
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffLog exploits that a log only grows at the end while stepping forward
// and only shrinks at the end while stepping back.
func diffLog(old, new *Progress) *LogDelta {
	if old == nil {
		if len(new.Log) == 0 {
			return nil
		}
		return &LogDelta{Appended: new.Log}
	}

	common := 0
	for common < len(old.Log) && common < len(new.Log) && old.Log[common] == new.Log[common] {
		common++
	}

	delta := &LogDelta{Truncated: len(old.Log) - common}
	if common < len(new.Log) {
		delta.Appended = new.Log[common:]
	}
	if delta.Truncated == 0 && len(delta.Appended) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ProgressDiff) IsEmpty() bool {
	return d.State == nil &&
		d.Round == nil &&
		d.Log == nil &&
		d.Alternatives == nil &&
		d.Spellout == nil
}
