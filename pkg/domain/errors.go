package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotStarted is returned by operations that need a started derivation.
var ErrNotStarted = errors.New("derivation not started")

// ErrInvalidAlternative is returned when the chosen alternative does not
// index the current match list.
var ErrInvalidAlternative = errors.New("invalid alternative index")

// ErrCannotMoveRoot is returned when a move targets the tree root.
var ErrCannotMoveRoot = errors.New("cannot move the root")

// ErrNotPendingMove is returned when a node without a scheduled move is moved.
var ErrNotPendingMove = errors.New("node has no pending move")

// ErrCannotGoForward is returned when stepping past a terminal state.
var ErrCannotGoForward = errors.New("cannot go forward")

// ErrCannotGoBack is returned when there is nothing to undo.
var ErrCannotGoBack = errors.New("cannot go back")
