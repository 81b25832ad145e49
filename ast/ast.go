// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package ast declares the mutable document tree shared by the parser, its
// plugins and the generators.
//
// Nodes live in an arena owned by a Tree and are addressed by ID handles.
// Parent and child links are IDs into the same arena, so a node removed from
// its parent stays valid and may be attached elsewhere; it is never destroyed
// implicitly. Every structural operation keeps the tree acyclic: inserting a
// node into itself or into one of its own descendants fails and leaves the
// tree untouched.
package ast // import "akhil.cc/quill/ast"

import "fmt"

// Kind is the structural level of a node.
type Kind uint8

const (
	// Unset is only meaningful for optional per-node overrides.
	Unset Kind = iota
	Block
	Inline
)

// Level returns the numeric scheduling level of k. Block nodes admit both
// block and inline constructs and therefore have the higher level.
func (k Kind) Level() int {
	switch k {
	case Block:
		return 2
	case Inline:
		return 1
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case Block:
		return "block"
	case Inline:
		return "inline"
	}
	return "unset"
}

// LineBreak selects how newlines inside text are treated by generators.
type LineBreak uint8

const (
	LineBreakUnset LineBreak = iota
	// LineBreakDefault keeps newlines as soft breaks.
	LineBreakDefault
	// LineBreakSoft turns every newline into a visible break.
	LineBreakSoft
)

func (l LineBreak) String() string {
	switch l {
	case LineBreakDefault:
		return "default"
	case LineBreakSoft:
		return "soft"
	}
	return "unset"
}

// Type is the closed set of node variants.
type Type uint8

const (
	TypeText Type = iota + 1
	TypeDocument
	TypeParsed
	TypeEmph
	TypeStrong
	TypeDel
	TypeLink
	TypeImage
)

var typeNames = [...]string{
	TypeText:     "text",
	TypeDocument: "document",
	TypeParsed:   "parsed",
	TypeEmph:     "emph",
	TypeStrong:   "strong",
	TypeDel:      "del",
	TypeLink:     "link",
	TypeImage:    "image",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// ID is a handle to a node of a Tree. The zero ID is never a valid node.
type ID int32

// Nil is the invalid handle.
const Nil ID = 0

// LinkData is carried by Link and Image nodes.
type LinkData struct {
	Destination string
	Title       string
	// Label is the normalized reference label for reference-style links.
	Label string
}

type tristate uint8

const (
	triUnset tristate = iota
	triFalse
	triTrue
)

type node struct {
	typ       Type
	kind      Kind
	name      string
	maxLevel  Kind
	skipPara  tristate
	lineBreak LineBreak
	order     int
	raw       string
	hasRaw    bool
	output    string
	data      any
	parent    ID
	pos       int // index in parent.children
	children  []ID
}

// Tree is an arena of nodes rooted at a Document.
type Tree struct {
	nodes []node
	root  ID
}

// New returns a tree holding a single empty Document.
func New() *Tree {
	t := &Tree{nodes: make([]node, 1, 64)}
	t.root = t.alloc(node{typ: TypeDocument, kind: Block, name: "document"})
	return t
}

func (t *Tree) alloc(n node) ID {
	t.nodes = append(t.nodes, n)
	return ID(len(t.nodes) - 1)
}

func (t *Tree) get(id ID) *node {
	if id <= Nil || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Root returns the Document node.
func (t *Tree) Root() ID { return t.root }

// Valid reports whether id names a node of t.
func (t *Tree) Valid(id ID) bool { return t.get(id) != nil }

// Len returns the number of nodes ever allocated in t, attached or not.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// NewText allocates a detached Text node.
func (t *Tree) NewText(kind Kind, raw string) ID {
	return t.alloc(node{typ: TypeText, kind: kind, name: "text", raw: raw, hasRaw: true})
}

// NewNode allocates a detached node of the given type. Text and Document
// nodes have dedicated constructors.
func (t *Tree) NewNode(typ Type, kind Kind, name string) ID {
	if typ == TypeText {
		return t.NewText(kind, "")
	}
	if name == "" {
		name = typ.String()
	}
	return t.alloc(node{typ: typ, kind: kind, name: name})
}

// NewParsed allocates a detached Parsed node wrapping a plugin match.
func (t *Tree) NewParsed(kind Kind, name, raw string, data any) ID {
	return t.alloc(node{typ: TypeParsed, kind: kind, name: name, raw: raw, hasRaw: true, data: data})
}

// Type returns the variant of id.
func (t *Tree) Type(id ID) Type {
	if n := t.get(id); n != nil {
		return n.typ
	}
	return 0
}

// Is reports whether id is a node of type typ.
func (t *Tree) Is(id ID, typ Type) bool { return t.Type(id) == typ }

// IsText reports whether id is a Text node.
func (t *Tree) IsText(id ID) bool { return t.Type(id) == TypeText }

// Kind returns the structural level fixed at construction.
func (t *Tree) Kind(id ID) Kind {
	if n := t.get(id); n != nil {
		return n.kind
	}
	return Unset
}

// Name returns the plugin-assigned name of id.
func (t *Tree) Name(id ID) string {
	if n := t.get(id); n != nil {
		return n.name
	}
	return ""
}

// SetName renames id.
func (t *Tree) SetName(id ID, name string) {
	if n := t.get(id); n != nil {
		n.name = name
	}
}

// Raw returns the source text mirrored by id. ok is false when no raw
// reconstruction is possible.
func (t *Tree) Raw(id ID) (raw string, ok bool) {
	if n := t.get(id); n != nil {
		return n.raw, n.hasRaw
	}
	return "", false
}

// Text returns the raw text of id, or the empty string.
func (t *Tree) Text(id ID) string {
	s, _ := t.Raw(id)
	return s
}

// SetRaw sets the raw mirror of id.
func (t *Tree) SetRaw(id ID, raw string) {
	if n := t.get(id); n != nil {
		n.raw, n.hasRaw = raw, true
	}
}

// ClearRaw marks id as having lost raw fidelity. Text nodes always keep
// their content.
func (t *Tree) ClearRaw(id ID) {
	if n := t.get(id); n != nil && n.typ != TypeText {
		n.raw, n.hasRaw = "", false
	}
}

// Data returns the plugin data attached to id.
func (t *Tree) Data(id ID) any {
	if n := t.get(id); n != nil {
		return n.data
	}
	return nil
}

// SetData attaches plugin data to id.
func (t *Tree) SetData(id ID, data any) {
	if n := t.get(id); n != nil {
		n.data = data
	}
}

// Link returns the link data of a Link or Image node.
func (t *Tree) Link(id ID) (LinkData, bool) {
	if n := t.get(id); n != nil && (n.typ == TypeLink || n.typ == TypeImage) {
		if ld, ok := n.data.(*LinkData); ok && ld != nil {
			return *ld, true
		}
	}
	return LinkData{}, false
}

// Output returns the rendered string stored on id.
func (t *Tree) Output(id ID) string {
	if n := t.get(id); n != nil {
		return n.output
	}
	return ""
}

// SetOutput stores the rendered string of id.
func (t *Tree) SetOutput(id ID, s string) {
	if n := t.get(id); n != nil {
		n.output = s
	}
}

// Order returns the transient walk iteration tag of id.
func (t *Tree) Order(id ID) int {
	if n := t.get(id); n != nil {
		return n.order
	}
	return 0
}

// SetOrder sets the transient walk iteration tag of id.
func (t *Tree) SetOrder(id ID, order int) {
	if n := t.get(id); n != nil {
		n.order = order
	}
}

// Parent returns the parent of id, or Nil.
func (t *Tree) Parent(id ID) ID {
	if n := t.get(id); n != nil {
		return n.parent
	}
	return Nil
}

// Attached reports whether id is reachable from the Document root.
func (t *Tree) Attached(id ID) bool {
	for id != Nil {
		if id == t.root {
			return true
		}
		id = t.Parent(id)
	}
	return false
}

// ChildCount returns the number of children of id.
func (t *Tree) ChildCount(id ID) int {
	if n := t.get(id); n != nil {
		return len(n.children)
	}
	return 0
}

// Child returns the i-th child of id, or Nil.
func (t *Tree) Child(id ID, i int) ID {
	if n := t.get(id); n != nil && i >= 0 && i < len(n.children) {
		return n.children[i]
	}
	return Nil
}

// Children returns a copy of the children of id.
func (t *Tree) Children(id ID) []ID {
	return t.Slice(id, 0, t.ChildCount(id))
}

// FirstChild returns the first child of id, or Nil.
func (t *Tree) FirstChild(id ID) ID { return t.Child(id, 0) }

// LastChild returns the last child of id, or Nil.
func (t *Tree) LastChild(id ID) ID { return t.Child(id, t.ChildCount(id)-1) }

// Index returns the position of id in its parent's children, or -1.
func (t *Tree) Index(id ID) int {
	n := t.get(id)
	if n == nil || n.parent == Nil {
		return -1
	}
	return n.pos
}

// Prev returns the previous sibling of id, or Nil.
func (t *Tree) Prev(id ID) ID {
	i := t.Index(id)
	if i <= 0 {
		return Nil
	}
	return t.Child(t.Parent(id), i-1)
}

// Next returns the next sibling of id, or Nil.
func (t *Tree) Next(id ID) ID {
	i := t.Index(id)
	if i < 0 {
		return Nil
	}
	return t.Child(t.Parent(id), i+1)
}
