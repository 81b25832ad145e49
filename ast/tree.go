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

package ast

// Options are the per-subtree settings inherited down the tree.
type Options struct {
	MaxLevel              Kind
	SkipParagraphWrapping bool
	LineBreak             LineBreak
}

// SetMaxLevel restricts the constructs admitted below id. The level is never
// looser than the node's own kind, and inline nodes are always inline.
func (t *Tree) SetMaxLevel(id ID, k Kind) {
	n := t.get(id)
	if n == nil {
		return
	}
	if k != Unset && k.Level() > n.kind.Level() {
		k = n.kind
	}
	if n.kind == Inline {
		k = Inline
	}
	n.maxLevel = k
}

// SetSkipParagraphWrapping overrides paragraph wrapping below id.
func (t *Tree) SetSkipParagraphWrapping(id ID, skip bool) {
	if n := t.get(id); n != nil {
		n.skipPara = triFalse
		if skip {
			n.skipPara = triTrue
		}
	}
}

// SetLineBreak overrides the line break mode below id.
func (t *Tree) SetLineBreak(id ID, lb LineBreak) {
	if n := t.get(id); n != nil {
		n.lineBreak = lb
	}
}

// Resolve looks up the options of id on the node itself, then on its
// nearest ancestors, then falls back to defaults: the node's own kind, no
// paragraph skipping and the default line break.
func (t *Tree) Resolve(id ID) Options {
	var o Options
	var haveMax, haveSkip, haveLB bool
	if t.Kind(id) == Inline {
		o.MaxLevel, haveMax = Inline, true
	}
	for cur := id; cur != Nil && !(haveMax && haveSkip && haveLB); cur = t.Parent(cur) {
		n := t.get(cur)
		if n == nil {
			break
		}
		if !haveMax && n.maxLevel != Unset {
			o.MaxLevel, haveMax = n.maxLevel, true
		}
		if !haveSkip && n.skipPara != triUnset {
			o.SkipParagraphWrapping, haveSkip = n.skipPara == triTrue, true
		}
		if !haveLB && n.lineBreak != LineBreakUnset {
			o.LineBreak, haveLB = n.lineBreak, true
		}
	}
	if !haveMax {
		o.MaxLevel = t.Kind(id)
	}
	// A node is never looser than its own kind.
	if o.MaxLevel.Level() > t.Kind(id).Level() {
		o.MaxLevel = t.Kind(id)
	}
	if !haveLB {
		o.LineBreak = LineBreakDefault
	}
	return o
}

// CopyOptions copies the explicit option overrides of src onto dst.
func (t *Tree) CopyOptions(dst, src ID) {
	s, d := t.get(src), t.get(dst)
	if s == nil || d == nil {
		return
	}
	d.maxLevel, d.skipPara, d.lineBreak = s.maxLevel, s.skipPara, s.lineBreak
}

// Contains reports whether other is reachable from id, id included.
func (t *Tree) Contains(id, other ID) bool {
	if t.get(id) == nil || t.get(other) == nil {
		return false
	}
	queue := []ID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == other {
			return true
		}
		queue = append(queue, t.nodes[cur].children...)
	}
	return false
}

// isAncestorOrSelf reports whether a is id or one of its ancestors.
func (t *Tree) isAncestorOrSelf(a, id ID) bool {
	for cur := id; cur != Nil; cur = t.Parent(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

func (t *Tree) acceptsChildren(id ID) bool {
	n := t.get(id)
	return n != nil && n.typ != TypeText
}

// checkIncoming validates nodes for insertion below parent and returns them
// deduplicated.
func (t *Tree) checkIncoming(parent ID, nodes []ID) ([]ID, bool) {
	if !t.acceptsChildren(parent) {
		return nil, false
	}
	seen := make(map[ID]bool, len(nodes))
	out := make([]ID, 0, len(nodes))
	for _, c := range nodes {
		if t.get(c) == nil || t.isAncestorOrSelf(c, parent) {
			return nil, false
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, true
}

// renumber refreshes the cached positions of the children of parent from
// index i on.
func (t *Tree) renumber(parent ID, i int) {
	p := &t.nodes[parent]
	for ; i < len(p.children); i++ {
		t.nodes[p.children[i]].pos = i
	}
}

func (t *Tree) detach(id ID) {
	t.detachAll([]ID{id})
}

// detachAll removes nodes from their parents, filtering each parent's
// children once.
func (t *Tree) detachAll(nodes []ID) {
	moving := make(map[ID]bool, len(nodes))
	seen := make(map[ID]bool)
	var parents []ID
	for _, c := range nodes {
		n := t.get(c)
		if n == nil || n.parent == Nil {
			continue
		}
		if !seen[n.parent] {
			seen[n.parent] = true
			parents = append(parents, n.parent)
		}
		moving[c] = true
	}
	for _, parent := range parents {
		p := &t.nodes[parent]
		first := -1
		kept := p.children[:0]
		for i, c := range p.children {
			if moving[c] && t.nodes[c].parent == parent {
				if first < 0 {
					first = i
				}
				t.nodes[c].parent = Nil
				continue
			}
			kept = append(kept, c)
		}
		p.children = kept
		if first >= 0 {
			t.renumber(parent, first)
		}
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// insert detaches nodes and splices them into parent at the index computed
// by at once the detaching is done.
func (t *Tree) insert(parent ID, at func(n int) int, nodes []ID) bool {
	nodes, ok := t.checkIncoming(parent, nodes)
	if !ok {
		return false
	}
	t.detachAll(nodes)
	p := &t.nodes[parent]
	i := clampIndex(at(len(p.children)), len(p.children))
	children := make([]ID, 0, len(p.children)+len(nodes))
	children = append(children, p.children[:i]...)
	children = append(children, nodes...)
	children = append(children, p.children[i:]...)
	p.children = children
	for _, c := range nodes {
		t.nodes[c].parent = parent
	}
	t.renumber(parent, i)
	return true
}

// Insert places nodes among the children of parent before index i. A
// negative index counts from the end; out of range indices are clamped.
// Each node is detached from its current parent first. Insert fails without
// touching the tree when parent is a Text node or when any node is parent
// itself or one of its ancestors.
func (t *Tree) Insert(parent ID, i int, nodes ...ID) bool {
	return t.insert(parent, func(int) int { return i }, nodes)
}

// Append adds nodes after the last child of parent.
func (t *Tree) Append(parent ID, nodes ...ID) bool {
	return t.insert(parent, func(n int) int { return n }, nodes)
}

// Prepend adds nodes before the first child of parent.
func (t *Tree) Prepend(parent ID, nodes ...ID) bool {
	return t.insert(parent, func(int) int { return 0 }, nodes)
}

// ReplaceChildren makes nodes the only children of parent. Previous children
// become parentless.
func (t *Tree) ReplaceChildren(parent ID, nodes ...ID) bool {
	nodes, ok := t.checkIncoming(parent, nodes)
	if !ok {
		return false
	}
	t.detachAll(nodes)
	p := &t.nodes[parent]
	for _, c := range p.children {
		t.nodes[c].parent = Nil
	}
	p.children = append([]ID(nil), nodes...)
	for _, c := range nodes {
		t.nodes[c].parent = parent
	}
	t.renumber(parent, 0)
	return true
}

func (t *Tree) sibling(id ID, nodes []ID, after bool) bool {
	if id == t.root {
		return false
	}
	parent := t.Parent(id)
	if parent == Nil {
		return false
	}
	for _, c := range nodes {
		if c == id {
			return false
		}
	}
	return t.insert(parent, func(int) int {
		i := t.Index(id)
		if after {
			i++
		}
		return i
	}, nodes)
}

// Before inserts nodes in front of id. It fails when id has no parent.
func (t *Tree) Before(id ID, nodes ...ID) bool { return t.sibling(id, nodes, false) }

// After inserts nodes behind id. It fails when id has no parent.
func (t *Tree) After(id ID, nodes ...ID) bool { return t.sibling(id, nodes, true) }

// Remove detaches id from its parent. It fails when id is parentless.
func (t *Tree) Remove(id ID) bool {
	if t.Parent(id) == Nil {
		return false
	}
	t.detach(id)
	return true
}

// Slice returns a copy of the children of parent in [start, end). Negative
// bounds count from the end and out of range or reversed bounds are clamped.
func (t *Tree) Slice(parent ID, start, end int) []ID {
	n := t.get(parent)
	if n == nil {
		return nil
	}
	start = clampIndex(start, len(n.children))
	end = clampIndex(end, len(n.children))
	if end < start {
		end = start
	}
	return append([]ID(nil), n.children[start:end]...)
}

// SliceBetween is Slice with node bounds: from is included and to is
// excluded. A Nil or foreign from starts at the first child; a Nil or
// foreign to runs to the end.
func (t *Tree) SliceBetween(parent, from, to ID) []ID {
	start, end := 0, t.ChildCount(parent)
	if from != Nil && t.Parent(from) == parent {
		start = t.Index(from)
	}
	if to != Nil && t.Parent(to) == parent {
		end = t.Index(to)
	}
	return t.Slice(parent, start, end)
}

// Walk calls f for id and its descendants in document order, without using
// the call stack for recursion. Returning false from f skips the children
// of that node.
func (t *Tree) Walk(id ID, f func(ID) bool) {
	stack := []ID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.get(cur) == nil || !f(cur) {
			continue
		}
		ch := t.nodes[cur].children
		for i := len(ch) - 1; i >= 0; i-- {
			stack = append(stack, ch[i])
		}
	}
}
