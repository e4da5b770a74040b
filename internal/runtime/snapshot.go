package runtime

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/lexicon"
	"github.com/aretw0/spellout/pkg/match"
	"github.com/aretw0/spellout/pkg/tree"
)

const (
	refNode    = "@node:"
	refLexicon = "@lexicon:"
	refState   = "@state:"
	refAction  = "@action:"
)

// Snapshot is the interchange form of a whole derivation. Nodes are
// referred to as "@node:N", N being the 1-based breadth-first position in
// Tree; lexicon entries as "@lexicon:N", N indexing Setup.Lexicon.
type Snapshot struct {
	Setup           *lexicon.SetupDoc  `json:"setup"`
	State           string             `json:"state"`
	Round           int                `json:"external_merge_round"`
	Tree            *tree.Doc          `json:"tree"`
	Log             []domain.Message   `json:"log"`
	LastChoice      *int               `json:"last_choice"`
	Highlights      map[string]string  `json:"highlights"`
	Lexicalizations map[string]*string `json:"lexicalizations"`
	PendingMoves    map[string]string  `json:"pending_moves"`
	UndoInfo        [][]UndoDoc        `json:"undo_info"`
}

// UndoDoc is one recorded compensating command.
type UndoDoc struct {
	Action string            `json:"action"`
	Args   []json.RawMessage `json:"args"`
}

var requiredFields = []string{
	"setup", "state", "external_merge_round", "tree", "log", "last_choice",
	"highlights", "lexicalizations", "pending_moves", "undo_info",
}

// MarshalJSON encodes the engine as a Snapshot.
func (e *Engine) MarshalJSON() ([]byte, error) {
	s, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Snapshot captures the complete engine state, undo history included.
func (e *Engine) Snapshot() (*Snapshot, error) {
	s := &Snapshot{
		State:           refState + string(e.state),
		Round:           e.round,
		Log:             slices.Clone(e.log),
		Highlights:      make(map[string]string),
		Lexicalizations: make(map[string]*string),
		PendingMoves:    make(map[string]string),
		UndoInfo:        make([][]UndoDoc, 0, len(e.undo)),
	}
	if s.Log == nil {
		s.Log = []domain.Message{}
	}
	if e.setup != nil {
		s.Setup = lexicon.EncodeSetup(e.setup)
	}
	if e.lastChoice != NoChoice {
		choice := e.lastChoice
		s.LastChoice = &choice
	}
	if e.tree == nil {
		return s, nil
	}
	s.Tree = tree.Encode(e.tree)

	enc := newRefEncoder(e.tree)
	for id, h := range e.highlights {
		ref, err := enc.node(id)
		if err != nil {
			return nil, fmt.Errorf("highlights: %w", err)
		}
		s.Highlights[ref] = string(h)
	}
	for id, idx := range e.lexicalizations {
		ref, err := enc.node(id)
		if err != nil {
			return nil, fmt.Errorf("lexicalizations: %w", err)
		}
		var entry *string
		if idx != lexicon.NoEntry {
			r := refLexicon + strconv.Itoa(idx)
			entry = &r
		}
		s.Lexicalizations[ref] = entry
	}
	for id, dest := range e.pendingMoves {
		ref, err := enc.node(id)
		if err != nil {
			return nil, fmt.Errorf("pending_moves: %w", err)
		}
		destRef, err := enc.node(dest)
		if err != nil {
			return nil, fmt.Errorf("pending_moves: %w", err)
		}
		s.PendingMoves[ref] = destRef
	}
	for _, f := range e.undo {
		docs := make([]UndoDoc, 0, len(f))
		for _, c := range f {
			doc, err := enc.command(c)
			if err != nil {
				return nil, fmt.Errorf("undo_info: %w", err)
			}
			docs = append(docs, doc)
		}
		s.UndoInfo = append(s.UndoInfo, docs)
	}
	return s, nil
}

type refEncoder struct {
	ids map[tree.NodeID]int
}

func newRefEncoder(t *tree.Tree) *refEncoder {
	ids := make(map[tree.NodeID]int)
	for i, id := range t.BFS() {
		ids[id] = i + 1
	}
	return &refEncoder{ids: ids}
}

func (r *refEncoder) node(id tree.NodeID) (string, error) {
	n, ok := r.ids[id]
	if !ok {
		return "", fmt.Errorf("node %d is not part of the tree", id)
	}
	return refNode + strconv.Itoa(n), nil
}

// optNode encodes Nil as JSON null.
func (r *refEncoder) optNode(id tree.NodeID) (json.RawMessage, error) {
	if id == tree.Nil {
		return rawJSON(nil), nil
	}
	ref, err := r.node(id)
	if err != nil {
		return nil, err
	}
	return rawJSON(ref), nil
}

func (r *refEncoder) command(c command) (UndoDoc, error) {
	doc := UndoDoc{Action: refAction + c.op.String(), Args: []json.RawMessage{}}
	switch c.op {
	case opSwitchState:
		doc.Args = append(doc.Args, rawJSON(refState+string(c.state)))

	case opHighlightNode:
		node, err := r.optNode(c.node)
		if err != nil {
			return doc, err
		}
		var prev any
		if c.highlight != "" {
			prev = string(c.highlight)
		}
		doc.Args = append(doc.Args, node, rawJSON(prev))

	case opNodeMove:
		for _, id := range []tree.NodeID{c.node, c.other, c.parent} {
			ref, err := r.optNode(id)
			if err != nil {
				return doc, err
			}
			doc.Args = append(doc.Args, ref)
		}
		doc.Args = append(doc.Args, rawJSON(int(c.side)), rawJSON(c.degree))

	case opLexicalization:
		for _, id := range []tree.NodeID{c.node, c.other, c.parent} {
			ref, err := r.optNode(id)
			if err != nil {
				return doc, err
			}
			doc.Args = append(doc.Args, ref)
		}

	case opSetLastChoice:
		var prev any
		if c.choice != NoChoice {
			prev = c.choice
		}
		doc.Args = append(doc.Args, rawJSON(prev))
	}
	return doc, nil
}

func rawJSON(v any) json.RawMessage {
	// Only strings, ints and nil are passed here.
	b, _ := json.Marshal(v)
	return b
}

// Unmarshal decodes a JSON snapshot into a new engine. Decoding is all or
// nothing: any error yields no engine.
func Unmarshal(data []byte, opts ...Option) (*Engine, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &DecodeError{Err: err}
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return nil, &DecodeError{Field: name, Err: ErrMissingField}
		}
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return Decode(&s, opts...)
}

// Decode rebuilds an engine from a snapshot.
func Decode(s *Snapshot, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, &DecodeError{Err: ErrMissingField}
	}
	e := NewEngine(opts...)

	state, err := parseStateRef(s.State)
	if err != nil {
		return nil, &DecodeError{Field: "state", Err: err}
	}
	e.state = state

	if s.LastChoice != nil {
		if *s.LastChoice < 0 {
			return nil, &DecodeError{Field: "last_choice", Err: fmt.Errorf("negative choice %d", *s.LastChoice)}
		}
		e.lastChoice = *s.LastChoice
	}
	for i, m := range s.Log {
		if _, err := domain.ParseSeverity(string(m.Severity)); err != nil {
			return nil, &DecodeError{Field: "log", Err: fmt.Errorf("message %d: %w", i+1, err)}
		}
	}
	e.log = slices.Clone(s.Log)

	if state == domain.StateNotStarted {
		return e, nil
	}

	if s.Setup == nil {
		return nil, &DecodeError{Field: "setup", Err: ErrMissingField}
	}
	setup, err := lexicon.DecodeSetup(s.Setup)
	if err != nil {
		return nil, &DecodeError{Field: "setup", Err: err}
	}
	if err := setup.Validate(); err != nil {
		return nil, &DecodeError{Field: "setup", Err: err}
	}
	e.setup = setup
	e.matcher = match.New(setup, e.policy)

	if s.Round < 0 || s.Round > len(setup.ExternalMerges)+1 {
		return nil, &DecodeError{Field: "external_merge_round", Err: fmt.Errorf("round %d out of range", s.Round)}
	}
	e.round = s.Round

	if s.Tree == nil {
		return nil, &DecodeError{Field: "tree", Err: ErrMissingField}
	}
	t, err := tree.Decode(s.Tree)
	if err != nil {
		return nil, &DecodeError{Field: "tree", Err: err}
	}
	e.tree = t

	dec := &refDecoder{nodes: t.BFS(), lexicon: len(setup.Lexicon)}
	if err := dec.highlights(e, s.Highlights); err != nil {
		return nil, &DecodeError{Field: "highlights", Err: err}
	}
	if err := dec.lexicalizations(e, s.Lexicalizations); err != nil {
		return nil, &DecodeError{Field: "lexicalizations", Err: err}
	}
	if err := dec.pendingMoves(e, s.PendingMoves); err != nil {
		return nil, &DecodeError{Field: "pending_moves", Err: err}
	}
	for i, docs := range s.UndoInfo {
		f := make(frame, 0, len(docs))
		for j, doc := range docs {
			c, err := dec.command(doc)
			if err != nil {
				return nil, &DecodeError{Field: "undo_info", Err: fmt.Errorf("frame %d, action %d: %w", i+1, j+1, err)}
			}
			f = append(f, c)
		}
		e.undo = append(e.undo, f)
	}
	return e, nil
}

func parseStateRef(ref string) (domain.State, error) {
	if ref == "" {
		return "", ErrMissingField
	}
	name, ok := strings.CutPrefix(ref, refState)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a state reference", ErrBadReference, ref)
	}
	s, err := domain.ParseState(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadReference, err)
	}
	return s, nil
}

type refDecoder struct {
	nodes   []tree.NodeID
	lexicon int
}

func (d *refDecoder) node(ref string) (tree.NodeID, error) {
	raw, ok := strings.CutPrefix(ref, refNode)
	if !ok {
		return tree.Nil, fmt.Errorf("%w: %q is not a node reference", ErrBadReference, ref)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > len(d.nodes) {
		return tree.Nil, fmt.Errorf("%w: invalid node ID %q", ErrBadReference, raw)
	}
	return d.nodes[n-1], nil
}

func (d *refDecoder) entry(ref string) (int, error) {
	raw, ok := strings.CutPrefix(ref, refLexicon)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a lexicon reference", ErrBadReference, ref)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n >= d.lexicon {
		return 0, fmt.Errorf("%w: invalid lexicon item index %q", ErrBadReference, raw)
	}
	return n, nil
}

func (d *refDecoder) highlights(e *Engine, in map[string]string) error {
	if in == nil {
		return ErrMissingField
	}
	for ref, h := range in {
		id, err := d.node(ref)
		if err != nil {
			return err
		}
		hl, err := domain.ParseHighlight(h)
		if err != nil {
			return err
		}
		e.highlights[id] = hl
	}
	return nil
}

func (d *refDecoder) lexicalizations(e *Engine, in map[string]*string) error {
	if in == nil {
		return ErrMissingField
	}
	for ref, entry := range in {
		id, err := d.node(ref)
		if err != nil {
			return err
		}
		idx := lexicon.NoEntry
		if entry != nil {
			if idx, err = d.entry(*entry); err != nil {
				return err
			}
		}
		e.lexicalizations[id] = idx
	}
	return nil
}

func (d *refDecoder) pendingMoves(e *Engine, in map[string]string) error {
	if in == nil {
		return ErrMissingField
	}
	for ref, destRef := range in {
		id, err := d.node(ref)
		if err != nil {
			return err
		}
		dest, err := d.node(destRef)
		if err != nil {
			return err
		}
		e.pendingMoves[id] = dest
	}
	return nil
}

func (d *refDecoder) command(doc UndoDoc) (command, error) {
	name, ok := strings.CutPrefix(doc.Action, refAction)
	if !ok {
		return command{}, fmt.Errorf("%w: %q is not an action reference", ErrBadReference, doc.Action)
	}
	op, ok := parseUndoOp(name)
	if !ok {
		return command{}, fmt.Errorf("%w: no such action %q", ErrBadReference, name)
	}

	want := map[undoOp]int{
		opSwitchState:    1,
		opHighlightNode:  2,
		opIncrementRound: 0,
		opExternalMerge:  0,
		opNodeMove:       5,
		opLexicalization: 3,
		opSetLastChoice:  1,
		opLogMessage:     0,
	}[op]
	if len(doc.Args) != want {
		return command{}, fmt.Errorf("%s expects %d arguments, got %d", name, want, len(doc.Args))
	}

	c := command{op: op, node: tree.Nil, other: tree.Nil, parent: tree.Nil, choice: NoChoice}
	var err error
	switch op {
	case opSwitchState:
		var ref string
		if err = json.Unmarshal(doc.Args[0], &ref); err == nil {
			c.state, err = parseStateRef(ref)
		}

	case opHighlightNode:
		if c.node, err = d.argNode(doc.Args[0], false); err != nil {
			break
		}
		var prev *string
		if err = json.Unmarshal(doc.Args[1], &prev); err == nil && prev != nil {
			c.highlight, err = domain.ParseHighlight(*prev)
		}

	case opNodeMove:
		if c.node, err = d.argNode(doc.Args[0], false); err != nil {
			break
		}
		if c.other, err = d.argNode(doc.Args[1], false); err != nil {
			break
		}
		if c.parent, err = d.argNode(doc.Args[2], false); err != nil {
			break
		}
		var side int
		if err = json.Unmarshal(doc.Args[3], &side); err != nil {
			break
		}
		if side != int(tree.Left) && side != int(tree.Right) {
			err = fmt.Errorf("invalid side %d", side)
			break
		}
		c.side = tree.Side(side)
		err = json.Unmarshal(doc.Args[4], &c.degree)

	case opLexicalization:
		if c.node, err = d.argNode(doc.Args[0], false); err != nil {
			break
		}
		if c.other, err = d.argNode(doc.Args[1], true); err != nil {
			break
		}
		c.parent, err = d.argNode(doc.Args[2], true)

	case opSetLastChoice:
		var prev *int
		if err = json.Unmarshal(doc.Args[0], &prev); err == nil && prev != nil {
			if *prev < 0 {
				err = fmt.Errorf("negative choice %d", *prev)
			} else {
				c.choice = *prev
			}
		}
	}
	if err != nil {
		return command{}, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

func (d *refDecoder) argNode(raw json.RawMessage, nullable bool) (tree.NodeID, error) {
	var ref *string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return tree.Nil, err
	}
	if ref == nil {
		if nullable {
			return tree.Nil, nil
		}
		return tree.Nil, fmt.Errorf("%w: null node reference", ErrBadReference)
	}
	return d.node(*ref)
}
