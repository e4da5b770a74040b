// Package tree models the binary syntactic trees that derivations operate
// on: feature heads, phrasal projections, traces left by movement and
// placeholders for unfinished input.
//
// A Tree stores its nodes in an arena and hands out NodeID handles, so that
// a node keeps its identity while it is detached and re-attached during
// movement and undo.
package tree
