package tree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var namePattern = regexp.MustCompile(`(?i)^([a-z]+?)(P([0-9]+)?)?$`)

// ParseName turns a node name such as "V", "DP" or "CP2" into a node.
// "..." yields a placeholder. The feature is capitalized.
func ParseName(name string) (Node, error) {
	if name == "..." {
		return Placeholder(), nil
	}
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Node{}, fmt.Errorf("invalid node name %q", name)
	}
	feature := capitalize(m[1])
	if m[2] == "" {
		return Feature(feature), nil
	}
	degree := 0
	if m[3] != "" {
		d, err := strconv.Atoi(m[3])
		if err != nil {
			return Node{}, fmt.Errorf("invalid degree in %q: %w", name, err)
		}
		degree = d
	}
	return Phrasal(feature, degree), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Parse reads a tree in bracket notation: name [ "(" child [ "," child ] ")" ].
// A single child goes to the left slot; "_" marks an empty slot, so
// "DP(_, D)" has only a right child.
func Parse(src string) (*Tree, error) {
	p := &parser{src: src}
	t := &Tree{}
	root, err := p.node(t)
	if err != nil {
		return nil, err
	}
	if root == Nil {
		return nil, fmt.Errorf("tree notation %q: empty tree", src)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	t.root = root
	return t, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(src string) *Tree {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("tree notation %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '.' || c == '_') {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// node parses one (possibly empty) slot and returns its id or Nil.
func (p *parser) node(t *Tree) (NodeID, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return Nil, p.errorf("expected node name")
	}
	if name == "_" {
		return Nil, nil
	}
	n, err := ParseName(name)
	if err != nil {
		return Nil, p.errorf("%v", err)
	}
	id := t.Add(n)

	p.skipSpace()
	if p.peek() != '(' {
		return id, nil
	}
	p.pos++

	for _, side := range Sides {
		child, err := p.node(t)
		if err != nil {
			return Nil, err
		}
		t.SetChild(id, side, child)

		p.skipSpace()
		switch p.peek() {
		case ',':
			if side == Right {
				return Nil, p.errorf("a node has at most two children")
			}
			p.pos++
			continue
		case ')':
			p.pos++
			return id, nil
		default:
			return Nil, p.errorf("expected ',' or ')'")
		}
	}
	return id, nil
}

// Format renders the tree in bracket notation. Traces are written as
// t<name>; they cannot be read back by Parse.
func Format(t *Tree) string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	t.format(&sb, t.root)
	return sb.String()
}

// String implements fmt.Stringer with Format.
func (t *Tree) String() string {
	return Format(t)
}

func (t *Tree) format(sb *strings.Builder, id NodeID) {
	if id == Nil {
		sb.WriteByte('_')
		return
	}
	sb.WriteString(t.Name(id))
	left, right := t.Child(id, Left), t.Child(id, Right)
	if left == Nil && right == Nil {
		return
	}
	sb.WriteByte('(')
	t.format(sb, left)
	if right != Nil {
		sb.WriteString(", ")
		t.format(sb, right)
	}
	sb.WriteByte(')')
}
