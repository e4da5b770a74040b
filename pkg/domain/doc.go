/*
Package domain contains the vocabulary shared by the spellout engine and its
adapters.

It defines the enumerated derivation states, the log messages and node
highlights a derivation produces, the alternatives offered at choice points,
the lifecycle hooks used for observability and the sentinel errors. This
package is kept pure and free of I/O, so that runtime, persistence and
transport layers can all depend on it.

# Key Entities

  - State: the symbolic name of a step of the derivation state machine.
  - Message: a note, warning or error appended to the derivation log.
  - Highlight: the role a node plays in the step being shown.
  - Alternative: one selectable choice at a lexicalization point.
  - Progress: a compact public view of a session, with Diff for updates.
*/
package domain
