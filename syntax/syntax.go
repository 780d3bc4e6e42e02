// Package syntax defines the syntax-tree half of the program model.
//
// Trees are built by a front-end (or decoded from a serialized model) and
// are read-only for every pass in this engine. A Node owns its children
// exclusively; passes traverse with Walk and never mutate.
package syntax

import (
	"github.com/pkg/errors"

	"github.com/rlange/anneal/source"
)

// Kind is the tag identifying what a Node represents.
type Kind int

const (
	KindInvalid Kind = iota
	KindFile
	KindFuncDecl
	KindBlock
	KindIf
	KindFor
	KindSwitch
	KindCase // switch-case or select arm; Default marks a default arm
	KindSelect
	KindCall
	KindBinaryOp
	KindUnaryOp
	KindAssign
	KindReturn
	KindIdent
	KindStringLit
	KindIntLit
	KindFloatLit
	KindBoolLit
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindFile:      "file",
	KindFuncDecl:  "func",
	KindBlock:     "block",
	KindIf:        "if",
	KindFor:       "for",
	KindSwitch:    "switch",
	KindCase:      "case",
	KindSelect:    "select",
	KindCall:      "call",
	KindBinaryOp:  "binop",
	KindUnaryOp:   "unop",
	KindAssign:    "assign",
	KindReturn:    "return",
	KindIdent:     "ident",
	KindStringLit: "string",
	KindIntLit:    "int",
	KindFloatLit:  "float",
	KindBoolLit:   "bool",
}

// ErrBadKind is returned when decoding an unrecognized kind tag.
var ErrBadKind = errors.New("syntax: unknown node kind")

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	s := string(text)
	for i, name := range kindNames {
		if name == s && Kind(i) != KindInvalid {
			*k = Kind(i)
			return nil
		}
	}
	return errors.Wrapf(ErrBadKind, "%q", s)
}

// IsLiteral reports whether k is a literal kind.
func (k Kind) IsLiteral() bool {
	switch k {
	case KindStringLit, KindIntLit, KindFloatLit, KindBoolLit:
		return true
	}
	return false
}

// Node is a single syntax-tree node.
//
// Name holds identifier names, call targets and declaration names.
// Value holds literal text for literal kinds and the operator for
// binop/unop kinds. Type is the front-end's type annotation where one is
// available; passes treat an empty Type as "unknown" and fall back to
// kind-based heuristics.
type Node struct {
	Kind    Kind       `json:"kind"`
	Pos     source.Pos `json:"pos,omitempty"`
	Name    string     `json:"name,omitempty"`
	Value   string     `json:"value,omitempty"`
	Type    string     `json:"type,omitempty"`
	Default bool       `json:"default,omitempty"` // default arm of a switch/select
	Kids    []*Node    `json:"kids,omitempty"`
}

// New returns a new Node of the given kind at pos.
func New(kind Kind, pos source.Pos) *Node {
	return &Node{Kind: kind, Pos: pos}
}

// Add appends children to n and returns n for chaining.
func (n *Node) Add(kids ...*Node) *Node {
	n.Kids = append(n.Kids, kids...)
	return n
}

// Walk traverses the tree rooted at n in depth-first preorder, calling f
// for each node. If f returns false the node's children are skipped.
// A nil root is a no-op.
func Walk(n *Node, f func(*Node) bool) {
	if n == nil {
		return
	}
	if !f(n) {
		return
	}
	for _, kid := range n.Kids {
		Walk(kid, f)
	}
}

// Count returns the number of nodes in the tree for which pred holds.
func Count(n *Node, pred func(*Node) bool) int {
	c := 0
	Walk(n, func(m *Node) bool {
		if pred(m) {
			c++
		}
		return true
	})
	return c
}
