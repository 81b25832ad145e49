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

import (
	"sort"
	"strings"
)

// SplitAt cuts the Text node id at the given byte offsets. Offsets are
// deduplicated, sorted and restricted to the open interval (0, len). With no
// offset left the node itself is returned unchanged. Otherwise the pieces are
// inserted in place of id, which is removed, and the pieces are returned.
// Every piece inherits the kind and option overrides of id.
func (t *Tree) SplitAt(id ID, offsets ...int) []ID {
	if !t.IsText(id) {
		return nil
	}
	raw := t.nodes[id].raw
	cuts := make([]int, 0, len(offsets))
	for _, o := range offsets {
		if o > 0 && o < len(raw) {
			cuts = append(cuts, o)
		}
	}
	sort.Ints(cuts)
	uniq := cuts[:0]
	for i, o := range cuts {
		if i == 0 || o != cuts[i-1] {
			uniq = append(uniq, o)
		}
	}
	if len(uniq) == 0 {
		return []ID{id}
	}
	pieces := make([]ID, 0, len(uniq)+1)
	prev := 0
	for _, o := range append(uniq, len(raw)) {
		p := t.NewText(t.nodes[id].kind, raw[prev:o])
		t.CopyOptions(p, id)
		pieces = append(pieces, p)
		prev = o
	}
	if t.Parent(id) != Nil {
		t.Before(id, pieces...)
		t.Remove(id)
	}
	return pieces
}

// NormalizeOptions selects the optional whitespace trimming of Normalize.
type NormalizeOptions struct {
	// TrimLineIndent strips leading spaces and tabs from every physical
	// line of the Text descendants.
	TrimLineIndent bool
	// TrimTrailing strips trailing whitespace from the last Text child of
	// every block container.
	TrimTrailing bool
	// TrimBeforeBlock also strips Text children followed by a block sibling.
	TrimBeforeBlock bool
}

// Normalize cleans up the Text children of id and all its descendants: empty
// Text nodes are dropped and adjacent Text nodes with the same resolved
// options are merged, before and after the requested trimming.
func (t *Tree) Normalize(id ID, opts NormalizeOptions) {
	var containers []ID
	t.Walk(id, func(n ID) bool {
		if !t.IsText(n) {
			containers = append(containers, n)
		}
		return true
	})
	for _, c := range containers {
		t.mergeText(c)
	}
	if opts.TrimLineIndent {
		t.trimLineIndent(id)
	}
	if opts.TrimTrailing || opts.TrimBeforeBlock {
		for _, c := range containers {
			if t.Kind(c) == Block {
				t.trimTrailing(c, opts)
			}
		}
	}
	for _, c := range containers {
		t.mergeText(c)
	}
}

// mergeText rebuilds the children of parent in one pass, dropping empty
// Text nodes and folding runs of compatible ones into their first member.
func (t *Tree) mergeText(parent ID) {
	p := &t.nodes[parent]
	kept := make([]ID, 0, len(p.children))
	changed := false
	head := Nil
	var headOpts Options
	var run []string
	flush := func() {
		if len(run) > 1 {
			t.nodes[head].raw = strings.Join(run, "")
		}
		run = run[:0]
	}
	for _, c := range p.children {
		if !t.IsText(c) {
			flush()
			head = Nil
			kept = append(kept, c)
			continue
		}
		raw := t.nodes[c].raw
		if raw == "" {
			t.nodes[c].parent = Nil
			changed = true
			continue
		}
		opts := t.Resolve(c)
		if head != Nil && opts == headOpts {
			run = append(run, raw)
			t.nodes[c].parent = Nil
			changed = true
			continue
		}
		flush()
		head, headOpts = c, opts
		run = append(run, raw)
		kept = append(kept, c)
	}
	flush()
	if changed {
		p.children = kept
		t.renumber(parent, 0)
	}
}

func (t *Tree) trimLineIndent(id ID) {
	lineStart := true
	t.Walk(id, func(n ID) bool {
		switch {
		case t.IsText(n):
			raw := t.nodes[n].raw
			b := make([]byte, 0, len(raw))
			for i := 0; i < len(raw); i++ {
				c := raw[i]
				if lineStart && (c == ' ' || c == '\t') {
					continue
				}
				lineStart = c == '\n'
				b = append(b, c)
			}
			t.nodes[n].raw = string(b)
		case t.Kind(n) == Block:
			lineStart = true
		case t.ChildCount(n) == 0:
			raw, ok := t.Raw(n)
			lineStart = ok && strings.HasSuffix(raw, "\n")
		}
		return true
	})
}

func (t *Tree) trimTrailing(parent ID, opts NormalizeOptions) {
	n := t.ChildCount(parent)
	for i := 0; i < n; i++ {
		c := t.Child(parent, i)
		if !t.IsText(c) {
			continue
		}
		last := i == n-1
		beforeBlock := !last && !t.IsText(t.Child(parent, i+1)) && t.Kind(t.Child(parent, i+1)) == Block
		if (last && opts.TrimTrailing) || (beforeBlock && opts.TrimBeforeBlock) {
			t.nodes[c].raw = strings.TrimRight(t.nodes[c].raw, " \t\r\n")
		}
	}
}
