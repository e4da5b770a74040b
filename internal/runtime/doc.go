// Package runtime implements the derivation state machine: the transition
// function, the entry handler of each state, the mutating primitives they
// use (external merge, movement, lexicalization), the undo log of
// compensating commands and the snapshot codec.
package runtime
