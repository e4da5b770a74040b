/*
Package spellout is an interactive derivation engine for a binary-tree,
Minimalist-style syntactic formalism.

Starting from a seed node, a derivation repeatedly merges the next queued
node externally, re-merges constituents scheduled for movement and
lexicalizes tree nodes against a lexicon of pattern trees, until every node
is covered and the tree can be spelled out as a sequence of lexical items.

# Concept

The engine is a step-wise state machine. Every step is recorded as a frame
of compensating commands, so GoBack reverts it exactly, and a derivation
can be saved and resumed at any point through MarshalSnapshot and Load.
Choice points arise when several lexicon entries match a node; the
controller operations (GoToEnd, FullRun, NextPossibility) explore them.

# Usage

	setup := &lexicon.Setup{
		InitialNode:    tree.Feature("V"),
		ExternalMerges: []tree.Node{tree.Feature("D")},
		Lexicon: []lexicon.Entry{
			{Name: "saw", PhonologicalContent: "sɔː", Tree: tree.MustParse("V")},
			{Name: "the", PhonologicalContent: "ðə", Tree: tree.MustParse("D")},
		},
	}

	eng := spellout.New()
	if err := eng.Start(setup); err != nil {
		log.Fatal(err)
	}
	if err := eng.GoToEnd(); err != nil {
		log.Fatal(err)
	}
	for _, entry := range eng.Spellout() {
		fmt.Println(entry.Name)
	}

# Architecture

  - pkg/tree, pkg/lexicon, pkg/match: the data model and the matcher.
  - internal/runtime: the state machine, undo log and snapshot codec.
  - pkg/session: concurrent sessions over a pkg/ports.SnapshotStore.
  - pkg/adapters: memory, file, redis and badger stores, the HTTP and MCP
    surfaces and the loam lexicon vault.
*/
package spellout
