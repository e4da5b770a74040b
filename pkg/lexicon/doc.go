// Package lexicon holds the problem statement of a derivation: the seed
// node, the queue of nodes to merge externally and the lexical entries
// whose pattern trees nodes are matched against.
package lexicon
